package key

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xPolygon/edge-xcc/command"
	"github.com/0xPolygon/edge-xcc/command/helper"
	"github.com/0xPolygon/edge-xcc/helper/hex"
	"github.com/0xPolygon/edge-xcc/storage"
	"github.com/0xPolygon/edge-xcc/types"
)

const (
	prefixFlag     = "prefix"
	payloadFlag    = "payload"
	addressFlag    = "address"
	slotFlag       = "slot"
	generationFlag = "generation"
	decodeFlag     = "decode"
)

var errNoKey = errors.New("one of --prefix, --address or --decode is required")

type keyParams struct {
	prefix     string
	payload    string
	address    string
	slot       string
	generation uint32
	decode     string
}

var params keyParams

// GetCommand returns the key command
func GetCommand() *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Builds engine storage keys, or tells the namespace of one",
		Run:   runCommand,
	}

	setFlags(keyCmd)

	return keyCmd
}

func setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&params.prefix, prefixFlag, "", "the namespace of the key, e.g. nonce or config")
	cmd.Flags().StringVar(&params.payload, payloadFlag, "", "the hex payload following the namespace")
	cmd.Flags().StringVar(&params.address, addressFlag, "", "the contract address of a storage key")
	cmd.Flags().StringVar(&params.slot, slotFlag, "", "the 32 byte slot of a storage key")
	cmd.Flags().Uint32Var(&params.generation, generationFlag, 0, "the account generation of a storage key")
	cmd.Flags().StringVar(&params.decode, decodeFlag, "", "a hex key to inspect")

	cmd.MarkFlagsMutuallyExclusive(prefixFlag, addressFlag, decodeFlag)
	cmd.MarkFlagsRequiredTogether(addressFlag, slotFlag)
}

func (p *keyParams) build() (*KeyResult, error) {
	switch {
	case p.decode != "":
		key, err := helper.DecodeHexInput("key", p.decode)
		if err != nil {
			return nil, err
		}

		return describe(key), nil

	case p.prefix != "":
		prefix, err := storage.ParseKeyPrefix(p.prefix)
		if err != nil {
			return nil, err
		}

		payload, err := helper.DecodeHexInput("payload", p.payload)
		if err != nil {
			return nil, err
		}

		return describe(storage.BytesToKey(prefix, payload)), nil

	case p.address != "":
		addr, err := types.ParseAddress(p.address)
		if err != nil {
			return nil, err
		}

		slot, err := helper.DecodeHexInput("slot", p.slot)
		if err != nil {
			return nil, err
		}

		if len(slot) != types.HashLength {
			return nil, fmt.Errorf("invalid slot: %d bytes, expected %d", len(slot), types.HashLength)
		}

		return describe(storage.StorageToKey(addr, types.BytesToHash(slot), p.generation)), nil
	}

	return nil, errNoKey
}

func describe(key []byte) *KeyResult {
	res := &KeyResult{Key: hex.EncodeToHex(key), Length: len(key)}

	if prefix, ok := storage.KeyNamespace(key); ok {
		res.Namespace = prefix.String()
		res.Valid = true
	}

	return res
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := command.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	res, err := params.build()
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(res)
}
