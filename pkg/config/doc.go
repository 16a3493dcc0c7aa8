/*
Package config manages configuration parsing and validation for exportlib.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   YAML    | |  JSON   | |    HCL    |
	|  Parser   | | Parser  | |  Parser   |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Names the artifact to export and the directories it moves between
- Replaces the built-in paths without touching code

🔄 Flow:
1. Reads the file and picks a parser by extension
2. Decodes, rejecting unknown keys
3. Fills unset keys from Default()
4. Validates

🔍 Example:

	# exportlib.yaml
	filename: librustcraft_test.so
	source: ./tests/target/debug
	destination: build/out

	# exportlib.hcl
	filename    = "librustcraft_test.so"
	source      = "${default_source}/../release"
*/
package config
