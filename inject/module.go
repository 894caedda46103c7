package inject

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// MinGoVersion defines the minimum Go version a module needs for injection.
const MinGoVersion = "1.18" // Generated keys instantiate generic functions and receiver types.

// ErrGoVersion indicates the module's go directive is below MinGoVersion.
var ErrGoVersion = errors.New("go version below minimum " + MinGoVersion)

// IsGoVersionBelowMinimum returns true if goVersion is below MinGoVersion.
func IsGoVersionBelowMinimum(goVersion string) bool {
	if goVersion == "" {
		return false
	}
	return compareGoVersions(goVersion, MinGoVersion) < 0
}

// compareGoVersions compares go directive versions such as "1.21" or "1.22.3" with semver ordering.
// A release candidate suffix ("1.21rc1") orders before the release.
func compareGoVersions(a, b string) int {
	return semver.Compare(goSemver(a), goSemver(b))
}

func goSemver(v string) string {
	v = strings.TrimPrefix(v, "go")
	var pre string
	for _, tag := range []string{"rc", "beta"} {
		if i := strings.Index(v, tag); i > 0 {
			v, pre = v[:i], "-"+v[i:]
			break
		}
	}
	if strings.Count(v, ".") == 1 {
		v += ".0" // semver shorthand can not carry a prerelease
	}
	return "v" + v + pre
}

// FindGoModFile walks up from dir to locate the enclosing go.mod file.
func FindGoModFile(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		goMod := filepath.Join(dir, "go.mod")
		if FileExists(goMod) {
			return goMod, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod found above %s", dir)
		}
		dir = parent
	}
}

// CheckModule validates the go.mod governing dir for injection. A go directive below MinGoVersion is an
// error wrapping ErrGoVersion. A module that neither is nor requires the module providing runtimePath
// only produces a warning, the rewritten code will not build until the require is added.
func CheckModule(dir, runtimePath string) (string, error) {
	goModFile, err := FindGoModFile(dir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(goModFile)
	if err != nil {
		return "", fmt.Errorf("read %s failed: %w", goModFile, err)
	}
	f, err := modfile.Parse(goModFile, data, nil)
	if err != nil {
		return "", fmt.Errorf("parse %s failed: %w", goModFile, err)
	} else if f.Module == nil {
		return "", fmt.Errorf("%s has no module directive", goModFile)
	}
	if f.Go != nil && IsGoVersionBelowMinimum(f.Go.Version) {
		return "", fmt.Errorf("%s declares go %s: %w", goModFile, f.Go.Version, ErrGoVersion)
	}
	if err := module.CheckImportPath(runtimePath); err != nil {
		return "", fmt.Errorf("invalid runtime import path: %w", err)
	}

	if !providesPackage(f.Module.Mod.Path, runtimePath) {
		var found bool
		for _, r := range f.Require {
			if providesPackage(r.Mod.Path, runtimePath) {
				found = true
				break
			}
		}
		if !found {
			log.Printf("WARN: %s does not require a module providing %s", goModFile, runtimePath)
		}
	}
	return f.Module.Mod.Path, nil
}

// PackageImportPath returns the import path of the package in dir, derived from the enclosing go.mod.
func PackageImportPath(dir string) (string, error) {
	goModFile, err := FindGoModFile(dir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(goModFile)
	if err != nil {
		return "", fmt.Errorf("read %s failed: %w", goModFile, err)
	}
	modPath := modfile.ModulePath(data)
	if modPath == "" {
		return "", fmt.Errorf("%s has no module directive", goModFile)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(filepath.Dir(goModFile), absDir)
	if err != nil {
		return "", err
	} else if rel == "." {
		return modPath, nil
	}
	return path.Join(modPath, filepath.ToSlash(rel)), nil
}

func providesPackage(modPath, pkgPath string) bool {
	return pkgPath == modPath || strings.HasPrefix(pkgPath, modPath+"/")
}
