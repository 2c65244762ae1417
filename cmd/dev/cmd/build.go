package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const binary = "dist/pir"
const mainPackage = "./cmd/pir"

// BuildCmd builds the pir CLI natively, or inside the gobuild container when
// the target differs from the host (hid needs cgo, so no plain cross builds).
func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the pir cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var version, goos, arch, crossOS, crossArch string
			for name, dst := range map[string]*string{
				"version":    &version,
				"os":         &goos,
				"arch":       &arch,
				"cross-os":   &crossOS,
				"cross-arch": &crossArch,
			} {
				v, err := flags.GetString(name)
				if err != nil {
					return fmt.Errorf("could not get %s flag: %w", name, err)
				}
				*dst = v
			}
			noCache, err := flags.GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}

			if goos == runtime.GOOS && arch == runtime.GOARCH {
				if crossOS != "" && crossArch != "" {
					goos, arch = crossOS, crossArch
				}
				slog.Info("building", "target", binary, "os", goos, "arch", arch, "version", version)
				return build.GoBuild(binary, mainPackage, build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          arch,
					OS:            goos,
				})
			}

			slog.Info("building in container", "os", goos, "arch", arch, "version", version)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, arch),
				[]string{"build", "--version", version, "--cross-os", crossOS, "--cross-arch", crossArch},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   "gophertribe/gobuild:1.25-bookworm",
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	return cmd
}
