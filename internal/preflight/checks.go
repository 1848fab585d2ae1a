package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"vibe2apk/internal/deps"
)

// CheckDirectoryAccess verifies that a directory exists and is readable,
// writable, and traversable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckAndroidSDK verifies the Android SDK root can be resolved.
func CheckAndroidSDK() Result {
	root, err := deps.ResolveAndroidSDKRoot()
	if err != nil {
		return Result{Name: "Android SDK", Detail: err.Error()}
	}
	return Result{Name: "Android SDK", Passed: true, Detail: root}
}

// CheckJava verifies a JDK is reachable, preferring JAVA_HOME and falling
// back to whatever CheckBinaries already found on PATH.
func CheckJava(binaryAvailable bool) Result {
	if home, ok := deps.ResolveJavaHome(); ok {
		return Result{Name: "Java", Passed: true, Detail: home}
	}
	if binaryAvailable {
		return Result{Name: "Java", Passed: true, Detail: "resolved from PATH"}
	}
	return Result{Name: "Java", Detail: "JAVA_HOME unset and no java binary on PATH"}
}

// ToolchainRequirements lists the fixed external-CLI contract from spec.md
// §4.5.10: a JS runtime and its package managers, the shell-style CLI
// (Cordova) and wrapper-style CLI (Bubblewrap), Java, and Gradle. The
// Android SDK and JAVA_HOME are checked separately since they resolve to a
// directory rather than a PATH-discoverable binary.
func ToolchainRequirements() []deps.Requirement {
	return []deps.Requirement{
		{Name: "Node.js", Command: "node", Description: "JS runtime for bundling and CLIs"},
		{Name: "npm", Command: "npm", Description: "Default JS package manager"},
		{Name: "pnpm", Command: "pnpm", Description: "Preferred package manager when pnpm-lock.yaml is present", Optional: true},
		{Name: "yarn", Command: "yarn", Description: "Preferred package manager when yarn.lock is present", Optional: true},
		{Name: "Cordova", Command: "cordova", Description: "Mobile-app shell CLI used by the HTML pipeline"},
		{Name: "Bubblewrap", Command: "bubblewrap", Description: "Android wrapper CLI used by the zip pipeline"},
		{Name: "Java", Command: "java", Description: "Required by Gradle and the Android build tools"},
		{Name: "Gradle", Command: "gradle", Description: "System Gradle, used to provision the project's wrapper", Optional: true},
	}
}
