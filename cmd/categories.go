package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/filings-cli/internal/model"
)

var listCategoriesJSON bool

type categoryInfo struct {
	Label     string `json:"label"`
	ConfigKey string `json:"config_key"`
}

// categoryList encodes every category as key → info, in processing order.
type categoryList []model.CategoryKey

func (l categoryList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(categoryInfo{Label: k.Label(), ConfigKey: k.ConfigKey()})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var listCategoriesCmd = &cobra.Command{
	Use:   "list-categories",
	Short: "List the filing categories that can be downloaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cats := categoryList(model.AllCategories())
		if listCategoriesJSON {
			return writeJSON(out, cats)
		}
		fmt.Fprintln(out, "Available categories:")
		for _, k := range cats {
			fmt.Fprintf(out, "  %s: %s\n", k, k.Label())
		}
		return nil
	},
}

func init() {
	listCategoriesCmd.Flags().BoolVar(&listCategoriesJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(listCategoriesCmd)
}
