/*
 * @author: Sun977
 * @date: 2026.01.21
 * @description: vulnctl 运维命令行入口
 */

package main

func main() {
	Execute()
}
