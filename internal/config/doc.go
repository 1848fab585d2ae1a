// Package config loads vibe2apk's runtime configuration.
//
// Defaults live in code (Default), an optional TOML file overlays them, and
// environment variables have the final say — every key in the environment
// table is read at startup and unrecognized keys are ignored. BuildsDir and
// UploadsDir are resolved to absolute paths before any directory is created.
package config
