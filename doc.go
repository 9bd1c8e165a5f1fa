/*
Package maml parses MAML documents into value trees and maps them to and from
Go values.

MAML is a superset of JSON. It adds comments, unquoted object keys, newlines
as separators, optional trailing commas, triple-quoted raw strings and \u{...}
escapes of one to six hex digits:

	# service configuration
	{
	  name: "api"
	  port: 8080
	  tags: [
	    "blue", "green",
	  ]
	  banner: """
	Welcome!
	"""
	}

1. Value Trees

Parse turns a document into a tree of value.Value nodes. Malformed input
yields a *SyntaxError whose message is an annotated report of every problem:

	v, err := maml.Parse(data)
	if err != nil {
		fmt.Println(err)
		// error: expected one of value, "]", found ","
		//  --> <input>:1:5
		//   |
		// 1 | [1, , 2]
		//   |     ^^^^ expected one of
	}

ParseWithDiagnostics does the same but writes the report to a side channel,
os.Stderr by default, and names the source in it. FormatValue writes a tree
back as MAML.

2. Data-Oriented Decoding and Encoding

For the common task of converting MAML data into Go structs (and vice versa),
the Marshal and Unmarshal functions provide a simple and direct API, closely
mirroring the standard encoding/json package.

	var data = []byte(`{ name: "MAML", version: 1.0 }`)

	type Config struct {
		Name    string  `maml:"name"`
		Version float64 `maml:"version"`
	}

	var cfg Config
	if err := maml.Unmarshal(data, &cfg); err != nil {
		// handle error
	}
	// cfg is now populated with {Name: "MAML", Version: 1.0}

Customization is available via struct field tags (e.g., `maml:"key,omitempty"`)
and by implementing the maml.Marshaler and maml.Unmarshaler interfaces. A field
of type value.Value receives the raw subtree.
*/
package maml
