package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chinmay1088/hopper/contracts"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [contract] [input-data]",
	Short: "Decode transaction input data",
	Long: `Decode the input data of a transaction sent to a known contract.

Contracts: erc20, woofi, stargate

Example:
  hopper decode stargate 0x9fbf10fc0000...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		contract, err := contracts.ByName(args[0])
		if err != nil {
			return err
		}
		method, inputs, err := contracts.Decode(contract, args[1])
		if err != nil {
			return err
		}
		printDecoded(os.Stdout, method, inputs)
		return nil
	},
}

func printDecoded(w io.Writer, method string, inputs map[string]interface{}) {
	fmt.Fprintf(w, "🧾 Method: %s\n", color.CyanString(method))

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "   %s: %s\n", name, formatArg(inputs[name]))
	}
}

func formatArg(value interface{}) string {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case []byte:
		if len(v) == 0 {
			return "0x"
		}
		return hexutil.Encode(v)
	case fmt.Stringer:
		return v.String()
	default:
		s := fmt.Sprintf("%+v", v)
		return strings.ReplaceAll(s, "\n", " ")
	}
}
