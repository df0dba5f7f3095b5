// Package config loads commitlog server configuration.
//
// Precedence, lowest first: built-in defaults (Default), a YAML file (Load),
// COMMITLOG_* environment variables (FromEnv), then command-line flags applied
// by the caller. Validate should run after all layers are applied.
package config
