package main

// Flag names for Viper binding
const (
	FlagVerbose        = "verbose"
	FlagConfig         = "config"
	FlagBuildLog       = "build-log"
	FlagNoExitKeypress = "NoExitKeypress"
)

// Config keys the flags are bound to.
const (
	keyVerbose        = "verbose"
	keyConfig         = "config"
	keyBuildLog       = "paths.build_log"
	keyNoExitKeypress = "no_exit_keypress"
)
