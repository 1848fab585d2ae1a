// Package androidwrapper drives the zip pipeline's wrapper-style CLI
// (Google's Bubblewrap, per the "Open Question resolved" entry in
// DESIGN.md): installing the wrapper tooling into a built front-end
// project, generating the Trusted Web Activity Android project, injecting
// icons into its mipmap directories, and locating the debug APK that the
// Gradle build produces.
package androidwrapper
