// atlas-loader 輸出模型對應的 DDL，供 atlas 的 external_schema 使用
package main

import (
	"fmt"
	"io"
	"os"

	"ariga.io/atlas-provider-gorm/gormschema"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"supplishare/models"
)

func main() {
	dialect := pflag.String("dialect", "postgres", "")
	dbSchema := pflag.String("db-schema", "supplishare", "")
	pflag.Parse()

	stmts, err := gormschema.New(
		*dialect,
		gormschema.WithConfig(&gorm.Config{NamingStrategy: models.NewNamingStrategy(*dbSchema)}),
	).Load(models.All()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load gorm schema: %v\n", err)
		os.Exit(1)
	}
	io.WriteString(os.Stdout, stmts)
}
