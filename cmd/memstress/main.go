package main

import (
	"fmt"
	"os"

	"github.com/fulldump/goconfig"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.uber.org/zap"
)

type Config struct {
	Workers int    `usage:"number of concurrent producers"`
	Budget  int    `usage:"arena budget in bytes"`
	Size    int    `usage:"bytes per allocation"`
	Align   int    `usage:"alignment per allocation (0 = 8)"`
	Frames  int    `usage:"number of frames; the arena is reset between frames"`
	Backing string `usage:"backing allocator: heap | pages"`
	Verbose bool   `usage:"log every frame"`
}

func main() {
	c := Config{
		Workers: 8,
		Budget:  64 << 20,
		Size:    256,
		Align:   16,
		Frames:  10,
		Backing: "pages",
	}
	goconfig.Read(&c)

	log := zap.NewNop()
	if c.Verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()

	rep, err := Run(c, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "memstress:", err)
		os.Exit(1)
	}

	b, err := json2.Marshal(rep, jsontext.WithIndent("  "))
	if err != nil {
		fmt.Fprintln(os.Stderr, "memstress:", err)
		os.Exit(1)
	}
	fmt.Println(string(b))
}
