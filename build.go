//go:build ignore

// build.go - consolidator build system
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, analyze, server, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const (
	version = "0.1.0"
	module  = "consolidator"
)

var (
	rootDir string
	distDir string

	// Executables (key = directory under cmd/, value = output name)
	executables = map[string]string{
		"analyze": "analyze",
		"server":  "consolidator-server",
	}

	// Release platforms (GOOS/GOARCH)
	platforms = [][2]string{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s. Run the build from the repository root.", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	switch *target {
	case "all":
		buildAll(*verbose)
	case "analyze", "server":
		buildExecutable(*target, runtime.GOOS, runtime.GOARCH, distDir, *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	case "release":
		buildRelease(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}

	duration := time.Since(startTime)
	printSuccess(fmt.Sprintf("Build completed in %s", duration.Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "   Shipment Consolidation - Build System   " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

// Build all executables for the host platform
func buildAll(verbose bool) {
	printInfo("Building all components...")

	if err := checkPrerequisites(); err != nil {
		printError(fmt.Sprintf("Prerequisites check failed: %v", err))
		os.Exit(1)
	}
	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create dist directory: %v", err))
		os.Exit(1)
	}

	for name := range executables {
		buildExecutable(name, runtime.GOOS, runtime.GOARCH, distDir, verbose)
	}
	copyConfigFiles(verbose)
}

func checkPrerequisites() error {
	if _, err := exec.LookPath("go"); err != nil {
		return fmt.Errorf("go toolchain not found in PATH")
	}
	return nil
}

func buildExecutable(name, goos, goarch, outDir string, verbose bool) {
	output := executables[name]
	if goos == "windows" {
		output += ".exe"
	}
	printInfo(fmt.Sprintf("Building %s (%s/%s)...", output, goos, goarch))

	ldflags := fmt.Sprintf("-s -w -X %s/internal/config.AppVersion=%s", module, version)
	args := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", filepath.Join(outDir, output)}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}
}

// copyConfigFiles places the sample configuration next to the binaries
func copyConfigFiles(verbose bool) {
	for _, name := range []string{"config.example.yaml", ".env.example"} {
		src := filepath.Join(rootDir, name)
		data, err := os.ReadFile(src)
		if err != nil {
			if verbose {
				printWarning(fmt.Sprintf("Skipping %s: %v", name, err))
			}
			continue
		}
		if err := os.WriteFile(filepath.Join(distDir, name), data, 0644); err != nil {
			printError(fmt.Sprintf("Failed to copy %s: %v", name, err))
		}
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
	}
	printSuccess("Build artifacts cleaned")
}

// buildRelease cross-compiles every executable into dist/<goos>_<goarch>
func buildRelease(verbose bool) {
	printInfo(fmt.Sprintf("Building release %s...", version))
	if err := checkPrerequisites(); err != nil {
		printError(fmt.Sprintf("Prerequisites check failed: %v", err))
		os.Exit(1)
	}

	for _, p := range platforms {
		outDir := filepath.Join(distDir, p[0]+"_"+p[1])
		if err := os.MkdirAll(outDir, 0755); err != nil {
			printError(fmt.Sprintf("Failed to create %s: %v", outDir, err))
			os.Exit(1)
		}
		for name := range executables {
			buildExecutable(name, p[0], p[1], outDir, verbose)
		}
	}
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all      Build analyze and server for this platform (default)")
	fmt.Println("  analyze  Build the analyze CLI")
	fmt.Println("  server   Build the HTTP server")
	fmt.Println("  test     Run all Go tests with -race")
	fmt.Println("  clean    Remove dist/")
	fmt.Println("  release  Cross-compile all executables")
}
