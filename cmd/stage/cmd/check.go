package cmd

import (
	"fmt"
	"strings"

	"github.com/go-drift/stage/pkg/scene"
)

func init() {
	RegisterCommand(&Command{
		Name:  "check",
		Short: "Validate a scene and print its tree",
		Long: `Load a stage.yaml file, validate every element and print the scene
tree with the resolved settings.`,
		Usage: "stage check [source]",
		Run:   runCheck,
	})
}

func runCheck(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected argument %q", args[1])
	}
	source := ""
	if len(args) == 1 {
		source = args[0]
	}
	res, err := loadScene(source)
	if err != nil {
		return err
	}
	els, err := res.Config.Elements()
	if err != nil {
		return err
	}
	if err := res.Config.CheckAnimations(); err != nil {
		return err
	}

	backend := res.Config.Stage.Backend
	if backend == "" {
		backend = "auto"
	}
	fmt.Fprintf(stdout, "%s: %dx%d, backend %s, %v per frame\n", res.Name, res.Width, res.Height, backend, res.Interval)
	for _, el := range els {
		printTree(el, 1)
	}
	for _, a := range res.Config.Animations {
		fmt.Fprintf(stdout, "  animate %s %s (%d keyframes, loop=%t)\n", a.Target, a.Path, len(a.Keyframes), a.Loop)
	}
	return nil
}

func printTree(el *scene.Element, depth int) {
	fmt.Fprintf(stdout, "%s%s %s (z=%d zlevel=%d)\n", strings.Repeat("  ", depth), el.Kind, el.ID, el.Z, el.ZLevel)
	for _, child := range el.Children() {
		printTree(child, depth+1)
	}
}
