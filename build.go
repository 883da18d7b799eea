//go:build ignore

// build.go - yeogiro build helper
// Usage: go run build.go [-target=TARGET]
// Targets: all, server, seedtips, seed, test, integration, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const module = "yeogiro/pkg/contracts"

var (
	distDir = "dist"

	// key = directory under cmd/, value = output binary
	executables = map[string]string{
		"yeogiro":  "yeogiro",
		"seedtips": "seedtips",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	start := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(*verbose)
	case "server":
		err = buildExecutable("yeogiro", *verbose)
	case "seedtips":
		err = buildExecutable("seedtips", *verbose)
	case "seed":
		err = runGo(*verbose, "run", "./cmd/seedtips")
	case "test":
		err = runGo(*verbose, "test", "-race", "./...")
	case "integration":
		err = runGo(*verbose, "test", "-race", "-tags", "integration", "./internal/store/...")
	case "clean":
		err = clean()
	default:
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("%s completed in %s", *target, time.Since(start).Round(time.Millisecond)))
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

func buildAll(verbose bool) error {
	printInfo("Building all commands...")
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", distDir, err)
	}
	for name := range executables {
		if err := buildExecutable(name, verbose); err != nil {
			return err
		}
	}
	return copyConfig()
}

func buildExecutable(name string, verbose bool) error {
	out, ok := executables[name]
	if !ok {
		return fmt.Errorf("unknown executable: %s", name)
	}
	printInfo(fmt.Sprintf("Building %s...", name))

	outputPath := filepath.Join(distDir, out)
	ldflags := fmt.Sprintf("-s -w -X %s.BuildTime=%s -X %s.GitCommit=%s",
		module, time.Now().UTC().Format(time.RFC3339), module, gitCommit())

	if err := runGo(verbose, "build", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name); err != nil {
		return fmt.Errorf("build %s: %w", name, err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", out, float64(info.Size())/1024/1024))
	}
	return nil
}

func runGo(verbose bool, args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if verbose {
		fmt.Printf("go %s\n", strings.Join(args, " "))
	}
	return cmd.Run()
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

// copyConfig places the default config and seed data next to the binaries.
func copyConfig() error {
	files := []string{
		filepath.Join("configs", "config.yaml"),
		filepath.Join("data", "shelters.json"),
		filepath.Join("data", "tips.json"),
		filepath.Join("data", "emergency.xlsx"),
	}
	for _, src := range files {
		if _, err := os.Stat(src); err != nil {
			printWarning(fmt.Sprintf("Skipping %s: %v", src, err))
			continue
		}
		if err := copyFile(src, filepath.Join(distDir, src)); err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, input, 0o644)
}

func clean() error {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		return err
	}
	return nil
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all           Build every command into dist/ (default)")
	fmt.Println("  server        Build the API server only")
	fmt.Println("  seedtips      Build the tip seeding tool only")
	fmt.Println("  seed          Load data/tips.json into the document store")
	fmt.Println("  test          Run unit tests")
	fmt.Println("  integration   Run store tests against containers")
	fmt.Println("  clean         Remove dist/")
}
