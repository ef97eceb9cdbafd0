package config

import "time"

// Base application details
const AppName = "phpcbf"
const ConfigDirName = "phpcbf"
const DefaultConfigFileName = "phpcbf.toml"
const DefaultLogFileName = "phpcbf.log"

// ProjectFileName is the per-project settings overlay, looked up in the
// target file's ancestor directories.
const ProjectFileName = ".phpcbf.json"

// Formatter invocation
const DefaultExecutable = "phpcbf"
const DefaultTimeout = 10 * time.Second

// FolderVar is expanded to the project root in the executable path and
// in the resolved standard (the ruleset may be a file inside the project).
const FolderVar = "${folder}"

// InputFileHeader tells phpcs/phpcbf which file the stdin content comes
// from, so filename-sensitive sniffs still work.
const InputFileHeader = "phpcs_input_file: "

// Loop guard
const DefaultLoopGuardBytes = 8
