// Package stage defines the contract a build pipeline (HTML or zip) exposes
// to the worker pool in internal/workflow: prepare a claimed task's
// workspace, execute the multi-stage external-tool build while reporting
// granular progress, and answer a startup health check for the toolchain it
// depends on.
package stage
