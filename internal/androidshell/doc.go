// Package androidshell drives the HTML pipeline's mobile-app shell CLI
// (Apache Cordova, per the "Open Question resolved" entry in DESIGN.md):
// creating the shell project, installing the Android platform, copying and
// patching the web content, syncing it into the native project, and
// locating the debug APK that the Gradle build produces.
package androidshell
