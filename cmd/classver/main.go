// Package main provides the entry point for the classver CLI.
//
// classver reports the Java class file versions found in class files,
// directories and archives (jar, war, ear and nested archives), so that
// classes too new for a target runtime can be spotted before deployment.
//
// Usage:
//
//	classver scan <file-or-directory>...
//	classver scan -e jar,war --group-by version /opt/app
//
// See --help for all available options.
package main

// main is the entry point for classver.
func main() {
	Execute()
}
