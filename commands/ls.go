package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	fcolor "github.com/fatih/color"

	"github.com/devpad/websh/core/vos"
)

// Ls implements the UNIX ls command.
func Ls(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "ls [OPTION]... [FILE]...",
		Short: "List information about the FILEs (the current directory by default).",
	}

	opts := cmd.Flags()
	listAll := opts.Bool('a', "don't ignore entries starting with .")
	longListing := opts.Bool('l', "use a long listing format")
	humanSize := opts.BoolLong("human-readable", rune(0), "print human readable sizes")
	onePerLine := opts.Bool('1', "list one file per line")

	var color ColorPrinter
	color.Init(opts, virtOS)

	return cmd.Run(virtOS, func() int {
		targets := opts.Args()
		if len(targets) == 0 {
			targets = append(targets, ".")
		}
		sort.Strings(targets)
		showDirectoryNames := len(targets) > 1

		sizeFmt := func(bytes int64) string {
			return fmt.Sprintf("%d", bytes)
		}
		if *humanSize {
			sizeFmt = BytesToHuman
		}

		exitCode := 0
		for i, target := range targets {
			file, err := virtOS.Open(target)
			if err != nil {
				fmt.Fprintf(virtOS.Stderr(), "ls: %s: no such file or directory\n", target)
				exitCode = 1
				continue
			}

			entries, err := file.Readdir(-1)
			file.Close()
			if err != nil {
				// Target is a plain file; list it bare.
				if stat, statErr := virtOS.Stat(target); statErr == nil {
					fmt.Fprintln(virtOS.Stdout(), color.Sprintf(dircolor(stat), "%s", target))
					continue
				}
				fmt.Fprintf(virtOS.Stderr(), "ls: %s: %v\n", target, err)
				exitCode = 1
				continue
			}

			var paths []os.FileInfo
			var totalSize int64
			for _, entry := range entries {
				if !*listAll && strings.HasPrefix(entry.Name(), ".") {
					continue
				}
				paths = append(paths, entry)
				totalSize += entry.Size()
			}
			sort.Slice(paths, func(i, j int) bool {
				return paths[i].Name() < paths[j].Name()
			})

			if showDirectoryNames {
				if i > 0 {
					fmt.Fprintln(virtOS.Stdout())
				}
				fmt.Fprintf(virtOS.Stdout(), "%s:\n", target)
			}

			switch {
			case *longListing:
				fmt.Fprintf(virtOS.Stdout(), "total %d\n", totalSize)
				tw := tabwriter.NewWriter(virtOS.Stdout(), 0, 0, 1, ' ', 0)
				for _, f := range paths {
					hardLinks := 1
					if f.IsDir() {
						hardLinks = 2
					}

					// Include time only if current year.
					modTime := f.ModTime().Format("Jan _2 2006")
					if f.ModTime().Year() >= time.Now().Year() {
						modTime = f.ModTime().Format("Jan _2 15:04")
					}

					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
						f.Mode().String(),
						hardLinks,
						"root",
						"root",
						sizeFmt(f.Size()),
						modTime,
						color.Sprintf(dircolor(f), "%s", f.Name()))
				}
				tw.Flush()

			case *onePerLine || !virtOS.GetPTY().IsPTY:
				for _, f := range paths {
					fmt.Fprintln(virtOS.Stdout(), color.Sprintf(dircolor(f), "%s", f.Name()))
				}

			default:
				var names []string
				for _, f := range paths {
					names = append(names, color.Sprintf(dircolor(f), "%s", f.Name()))
				}
				fmt.Fprintln(virtOS.Stdout(), strings.Join(names, "  "))
			}
		}

		return exitCode
	})
}

// Color scheme comes from the common dircolors defaults.
var dircolorTests = []struct {
	color *fcolor.Color
	test  func(fileInfo os.FileInfo) bool
}{
	// Directories are bold blue.
	{color: ColorBoldBlue, test: os.FileInfo.IsDir},
	// Symlinks are bold cyan.
	{color: ColorBoldCyan, test: func(fi os.FileInfo) bool {
		return fi.Mode()&fs.ModeSymlink > 0
	}},
	// Executables are bold green.
	{color: ColorBoldGreen, test: func(fi os.FileInfo) bool {
		return fi.Mode().Perm()&0111 > 0
	}},
	// Archives are bold red.
	{color: ColorBoldRed, test: func(fi os.FileInfo) bool {
		switch path.Ext(fi.Name()) {
		case ".tar", ".tgz", ".zip", ".gz", ".bz2", ".jar", ".rar":
			return true
		}
		return false
	}},
}

func dircolor(fileInfo os.FileInfo) *fcolor.Color {
	for _, dc := range dircolorTests {
		if dc.test(fileInfo) {
			return dc.color
		}
	}
	return fcolor.New(fcolor.FgHiWhite)
}

var _ vos.ProcessFunc = Ls

func init() {
	addBinCmd("ls", Ls)
}
