package workflow

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"devbox_provision/pkg/task"
)

// ABILibraryName inserts suffix before the first extension of a shared
// library file name: libboost_python.so, -py27 -> libboost_python-py27.so.
func ABILibraryName(name, suffix string) string {
	base, ext, found := strings.Cut(name, ".")
	if !found {
		return name + suffix
	}
	return base + suffix + "." + ext
}

// OpenImageIODirectory returns the directory the source archive unpacks to.
func OpenImageIODirectory(p OpenImageIOParams) string {
	return path.Join(p.StorageDirectory, "oiio-"+trimArchiveExt(path.Base(p.URL)))
}

// InstallOpenImageIO builds OpenImageIO from source, installs its binaries and
// libraries system wide and its python module into the target environment.
func (w *Workflow) InstallOpenImageIO(ctx context.Context, p OpenImageIOParams) error {
	if p.URL == "" {
		return errors.New("no OpenImageIO source url configured")
	}
	directory := OpenImageIODirectory(p)

	return guarded(ctx, w.exists(directory), directory, func() error {
		for _, library := range p.Libraries {
			link := path.Join(p.LibraryDirectory, library)
			target := path.Join(p.LibraryDirectory, ABILibraryName(library, p.ABISuffix))
			if err := w.sudo(ctx, "ln -fs "+task.Quote(target)+" "+task.Quote(link)); err != nil {
				return fmt.Errorf("relinking %s: %w", library, err)
			}
		}

		archive, err := w.download(ctx, p.URL, p.StorageDirectory)
		if err != nil {
			return err
		}
		if err := w.run(ctx, task.InDir(p.StorageDirectory, extractCommand(archive))); err != nil {
			return fmt.Errorf("unpacking %s: %w", archive, err)
		}
		if err := w.run(ctx, task.InDir(directory, "make PYTHON_VERSION="+task.Quote(p.PythonVersion))); err != nil {
			return fmt.Errorf("building OpenImageIO: %w", err)
		}

		dist := path.Join(directory, "dist", "linux64")
		if err := w.sudo(ctx, task.InDir(dist, "cp bin/* "+task.Quote(p.BinDirectory)+"/")); err != nil {
			return fmt.Errorf("installing OpenImageIO binaries: %w", err)
		}
		if err := w.sudo(ctx, task.InDir(dist, "cp lib/* "+task.Quote(p.LibDirectory)+"/")); err != nil {
			return fmt.Errorf("installing OpenImageIO libraries: %w", err)
		}

		module := path.Join(dist, "python", "OpenImageIO.so")
		if err := w.run(ctx, "cp "+task.Quote(module)+" "+task.Quote(p.SitePackagesDirectory)); err != nil {
			return fmt.Errorf("installing OpenImageIO python module: %w", err)
		}
		return nil
	})
}
