// Package project loads the .drconfig file of a devrunner project and
// scaffolds new projects.
//
// A .drconfig is a small TOML document:
//
//	[project]
//	name = "worker"
//	namespace = "alice"
//	image_name = "worker"
//	python_version = "3.12"
//	memory_limit = "512M"
//	cpu_limit = 0.5
//
// Older files written without quoting (name = worker) are still accepted.
package project
