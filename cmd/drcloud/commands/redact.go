package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drcloud/assistant/internal/phi"
)

var redactCmd = &cobra.Command{
	Use:   "redact [text]",
	Short: "De-identify text using the PHI filter",
	Long: `Run the PHI de-identification filter over text and print the result.
Reads from stdin when no argument is given. Useful for inspecting what
the documentation pipeline would persist for a given input.`,
	Run: runRedact,
}

func runRedact(cmd *cobra.Command, args []string) {
	var input string
	if len(args) > 0 {
		input = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			HandleError(err, "Failed to read stdin")
		}
		input = string(data)
	}

	fmt.Println(phi.Redact(input))
}
