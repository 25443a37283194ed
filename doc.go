// Package nvmbuild builds non-volatile memory images for microcontrollers.
//
// A layout file describes one or more flash blocks as a tree of typed fields.
// A workbook supplies the value of every field in a Default column, optional
// variant columns and an optional Debug column. nvmbuild resolves the values,
// lays the fields out with natural alignment, appends a CRC and writes the
// block as Intel HEX or Motorola S-record text.
//
// # Architecture Overview
//
//	nvmbuild/           Root package with the shared Endianness type
//	├── field/          Field tree: scalar types, arrays, structs, arrays of structs
//	├── cell/           Spreadsheet cell variant (number, text, reference)
//	├── datasource/     Workbook abstraction, in-memory table, .xlsx loader
//	├── resolve/        Debug > variant > default value resolution and conversion
//	├── checksum/       Parametrised CRC engine and presets
//	├── assemble/       Byte buffer assembly, padding, CRC and byte swap
//	├── ihex/           Intel HEX encoder, decoder and image comparison
//	├── srec/           Motorola S-record encoder
//	├── layout/         TOML / YAML / JSON layout loader
//	├── build/          Parallel multi-block builds, statistics and output files
//	├── errors/         Structured error types
//	└── cmd/nvmbuild/   Command line tool and interactive browser
//
// # Pipeline
//
//	layout.Document ──┐
//	                  ├─► resolve.Resolver ─► assemble.Assemble ─► DataRange ─► ihex.Encode
//	datasource.Source ┘
//
// Every stage is a pure function of its inputs; for identical layout, data
// and settings the output text is byte-for-byte identical.
//
// # Quick Start
//
//	file, err := layout.Load("blocks.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc, err := file.Document("config")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	src, err := datasource.OpenWorkbook("data.xlsx", "Main")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := resolve.New(src, resolve.Options{Variant: "VarA"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dr, err := assemble.Assemble(doc.Name, doc.Root, doc.Settings, res)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := ihex.EncodeToString(dr.Segments(), ihex.Options{RecordWidth: 32})
package nvmbuild
