package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/decker502/mshome/pkg/app"
	"github.com/decker502/mshome/pkg/config"
	"github.com/decker502/mshome/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging (default off)")
	selectFlag  = flag.String("select", "", "Home (theme) ID to open, defaults to the last opened home")
	dataFlag    = flag.String("data", "", "Directory containing data/catalog, replaces the embedded catalog")
	assetsFlag  = flag.String("assets", "", "Directory containing assets/ images")
)

func main() {
	flag.Parse()

	var data fs.FS = dataFS
	if *dataFlag != "" {
		data = os.DirFS(*dataFlag)
	}
	var assets fs.FS
	if *assetsFlag != "" {
		assets = os.DirFS(*assetsFlag)
	}
	embedded.Init(assets, data)
	if *assetsFlag != "" && !embedded.Exists("assets") {
		fmt.Fprintf(os.Stderr, "警告: %s 下没有 assets 目录，图片将以纯色显示\n", *assetsFlag)
	}

	editor, err := app.NewApp(app.Config{
		Verbose:  *verboseFlag,
		SelectID: *selectFlag,
	})
	if err != nil {
		// 非 verbose 模式下 log 已被静默
		fmt.Fprintf(os.Stderr, "编辑器初始化失败: %v\n", err)
		os.Exit(1)
	}

	ebiten.SetWindowSize(config.DefaultWindowWidth, config.DefaultWindowHeight)
	ebiten.SetWindowTitle("户型编辑器")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(editor); err != nil {
		log.Fatal(err)
	}
	editor.Shutdown()
}
