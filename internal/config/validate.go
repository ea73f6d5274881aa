// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"bytes"
	"embed"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

func init() {
	jsonschema.Loaders["embedFS"] = loadEmbedded
}

func loadEmbedded(url string) (io.ReadCloser, error) {
	const prefix = "embedFS://"
	data, err := schemaFS.ReadFile(url[len(prefix):])
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// validateAgainstSchema compiles the embedded config schema and validates
// the decoded configuration document against it. Grounded on
// pkg/schema/validate.go's embedFS-loader/jsonschema.Compile pattern.
func validateAgainstSchema(doc interface{}) error {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("embedFS://schemas/config.schema.json")
	if err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}
