package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/kcdoc"
)

func main() {
	root := "testdata"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(path, ".kcdoc") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		fatalf("walk %s: %v", root, err)
	}
	if len(paths) == 0 {
		fatalf("no kcdoc files found under %s", root)
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
		if err := kcdoc.ValidateInput(src); err != nil {
			fatalf("validate %s: %v", path, err)
		}
		out, _, err := kcdoc.Convert(string(src))
		if err != nil {
			fatalf("convert %s: %v", path, err)
		}
		goldenPath := goldenPathFor(path)
		if err := os.WriteFile(goldenPath, []byte(out), 0o644); err != nil {
			fatalf("write %s: %v", goldenPath, err)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", goldenPath)
	}
}

func goldenPathFor(src string) string {
	return strings.TrimSuffix(src, ".kcdoc") + ".html"
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
