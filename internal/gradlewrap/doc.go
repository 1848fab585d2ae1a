// Package gradlewrap implements spec.md §4.5.6's Gradle wrapper
// provisioning: ensuring an Android project directory has an executable
// gradlew, preferring a system Gradle already on PATH and falling back to
// a cached, pinned Gradle distribution download, then invoking the debug
// build with a JVM heap cap suited to container environments.
package gradlewrap
