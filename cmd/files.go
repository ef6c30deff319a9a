package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	listFilesJSON    bool
	listFilesExclude []string
)

type fileEntry struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	SizeBytes int64  `json:"size_bytes"`
}

type fileListing struct {
	Directory string      `json:"directory"`
	FileCount int         `json:"file_count"`
	Files     []fileEntry `json:"files"`
}

func excluded(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// collectFiles lists every regular file under dir. Files directly in dir
// have category "root"; others take their parent folder's name.
func collectFiles(dir string, exclude []string) (*fileListing, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, eris.Wrap(err, "list files: resolve directory")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, eris.Wrapf(err, "list files: %s", dir)
	}
	if !info.IsDir() {
		return nil, eris.Errorf("list files: %s is not a directory", dir)
	}

	listing := &fileListing{Directory: abs, Files: []fileEntry{}}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || excluded(d.Name(), exclude) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		category := "root"
		if parent := filepath.Dir(path); parent != abs {
			category = filepath.Base(parent)
		}
		listing.Files = append(listing.Files, fileEntry{
			Path:      path,
			Name:      d.Name(),
			Category:  category,
			SizeBytes: fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "list files: walk")
	}
	listing.FileCount = len(listing.Files)
	return listing, nil
}

var listFilesCmd = &cobra.Command{
	Use:     "list-files DIRECTORY",
	Short:   "List downloaded files in a directory",
	Example: "  filings list-files ./HDFCBANK_filings --json",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		listing, err := collectFiles(args[0], listFilesExclude)
		if err != nil {
			return err
		}
		if listFilesJSON {
			return writeJSON(out, listing)
		}
		fmt.Fprintf(out, "Files in %s:\n", args[0])
		for _, f := range listing.Files {
			fmt.Fprintf(out, "  [%s] %s\n", f.Category, f.Name)
		}
		fmt.Fprintf(out, "\nTotal: %d files\n", listing.FileCount)
		return nil
	},
}

func init() {
	listFilesCmd.Flags().BoolVar(&listFilesJSON, "json", false, "print as JSON")
	listFilesCmd.Flags().StringSliceVar(&listFilesExclude, "exclude", []string{".pkl"}, "file extensions to skip")
	rootCmd.AddCommand(listFilesCmd)
}
