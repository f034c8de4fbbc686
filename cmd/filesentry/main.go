// Package main 启动守护进程与命令行客户端
package main

import "github.com/yeisme/filesentry/pkg/cmd"

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
