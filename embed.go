// embed.go - 资源嵌入声明
// 必须放在项目根目录（与 data/ 同级）
// 因为 //go:embed 指令只能嵌入当前包目录及其子目录的文件
package main

import "embed"

// 内置内容目录（地图模板、户型主题、家具）
// 图片资源体积较大，不嵌入，通过 -assets 指定目录加载；缺少图片时物件以纯色显示
//
//go:embed data/catalog
var dataFS embed.FS
