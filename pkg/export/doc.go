/*
Package export copies a single build artifact out of a build system's target
directory into an output directory.

	+----------------+          +----------------+
	|   target dir   |  ----->  |   output dir   |
	| (build output) |  rename  | (distribution) |
	+----------------+          +----------------+

🎯 Purpose:
- Resolve the source and destination directories to absolute paths
- Copy one named file byte-for-byte, replacing any previous copy
- Report what happened (new, modified, unchanged) with size and checksum

⚡ Guarantees:
- The destination directory is never created
- A failed export leaves no partial file behind
- Errors match one of the Err* sentinels via errors.Is

🔍 Example:

	res, err := export.ExportBuiltFile(ctx, "librustcraft_test.so", "./tests/target/debug", "build/out")
*/
package export
