// Package main 是情绪荐书命令行工具。
//
// 用法：
//
//	moodrec recommend "今天心情很好" --max-books 8 --config moodrec.yaml
//	moodrec serve --config moodrec.yaml
//	moodrec taxonomy joy grief
//
// 配置文件也可以通过 MOODREC_CONFIG 指定，任一配置项可用 MOODREC_ 前缀的环境变量覆盖。
package main

import (
	"fmt"
	"os"

	"github.com/rushteam/moodrec/cmd/moodrec/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
