package xcc

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"
	"github.com/holiman/uint256"

	"github.com/0xPolygon/edge-xcc/helper/borsh"
	"github.com/0xPolygon/edge-xcc/types"
)

// MaxMethodNameLen bounds the method name of a promise
const MaxMethodNameLen = 256

var (
	errEmptyMethod   = errors.New("method name is empty")
	errLongMethod    = fmt.Errorf("method name is longer than %d bytes", MaxMethodNameLen)
	errInvalidMethod = errors.New("method name has whitespace or control characters")
	errGasTooHigh    = fmt.Errorf("attached gas exceeds %d", MaxAttachedGas)
	errTotalGas      = fmt.Errorf("gas attached to all calls exceeds %d", MaxTotalGas)
	errBalanceRange  = errors.New("attached balance does not fit in 128 bits")
)

// CallKind selects when the router issues the call
type CallKind uint8

const (
	// CallEager makes the router issue the call right away
	CallEager CallKind = 0
	// CallDelayed makes the router store the call until execute_scheduled
	CallDelayed CallKind = 1
)

func (k CallKind) String() string {
	switch k {
	case CallEager:
		return "eager"
	case CallDelayed:
		return "delayed"
	default:
		return fmt.Sprintf("CallKind(%d)", uint8(k))
	}
}

// PromiseKind is the shape of the outbound call
type PromiseKind uint8

const (
	// PromiseCreate is a single call
	PromiseCreate PromiseKind = 0
	// PromiseCallback is a base call followed by a callback that runs after it
	PromiseCallback PromiseKind = 1
)

func (k PromiseKind) String() string {
	switch k {
	case PromiseCreate:
		return "create"
	case PromiseCallback:
		return "callback"
	default:
		return fmt.Sprintf("PromiseKind(%d)", uint8(k))
	}
}

// PromiseCreateArgs is one function call on a host account
type PromiseCreateArgs struct {
	TargetAccountID types.AccountID `json:"target_account_id"`
	Method          string          `json:"method"`
	Args            []byte          `json:"args"`
	AttachedBalance *uint256.Int    `json:"attached_balance"`
	AttachedGas     types.NearGas   `json:"attached_gas"`
}

// PromiseArgs is either a single call or a call with a callback
type PromiseArgs struct {
	Kind     PromiseKind       `json:"kind"`
	Base     PromiseCreateArgs `json:"base"`
	Callback PromiseCreateArgs `json:"callback"`
}

// CrossContractCallArgs is the decoded precompile input
type CrossContractCallArgs struct {
	Kind    CallKind    `json:"kind"`
	Promise PromiseArgs `json:"promise"`
}

// NewCreate returns a single call promise
func NewCreate(base PromiseCreateArgs) PromiseArgs {
	return PromiseArgs{Kind: PromiseCreate, Base: base}
}

// NewCallback returns a promise whose callback runs after base
func NewCallback(base, callback PromiseCreateArgs) PromiseArgs {
	return PromiseArgs{Kind: PromiseCallback, Base: base, Callback: callback}
}

// Validate checks every field and reports all violations at once
func (p *PromiseCreateArgs) Validate() error {
	var result *multierror.Error

	if err := p.TargetAccountID.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("target account: %w", err))
	}

	if err := validateMethod(p.Method); err != nil {
		result = multierror.Append(result, err)
	}

	if p.AttachedGas > MaxAttachedGas {
		result = multierror.Append(result, errGasTooHigh)
	}

	if p.AttachedBalance != nil && !types.IsU128(p.AttachedBalance) {
		result = multierror.Append(result, errBalanceRange)
	}

	return result.ErrorOrNil()
}

func validateMethod(method string) error {
	switch {
	case len(method) == 0:
		return errEmptyMethod
	case len(method) > MaxMethodNameLen:
		return errLongMethod
	case !utf8.ValidString(method):
		return borsh.ErrInvalidUTF8
	}

	for _, r := range method {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errInvalidMethod
		}
	}

	return nil
}

// Balance returns the attached balance, zero when unset
func (p *PromiseCreateArgs) Balance() *uint256.Int {
	if p.AttachedBalance == nil {
		return new(uint256.Int)
	}

	return p.AttachedBalance
}

// Calls returns the calls of the promise in execution order
func (p *PromiseArgs) Calls() []PromiseCreateArgs {
	if p.Kind == PromiseCallback {
		return []PromiseCreateArgs{p.Base, p.Callback}
	}

	return []PromiseCreateArgs{p.Base}
}

// TotalGas returns the gas forwarded by all calls of the promise
func (p *PromiseArgs) TotalGas() types.NearGas {
	var total types.NearGas

	for _, c := range p.Calls() {
		total += c.AttachedGas
	}

	return total
}

// TotalBalance returns the balance attached to all calls of the promise
func (p *PromiseArgs) TotalBalance() *uint256.Int {
	total := new(uint256.Int)

	for _, c := range p.Calls() {
		total.Add(total, c.Balance())
	}

	return total
}

func (p *PromiseArgs) Validate() error {
	if p.Kind != PromiseCreate && p.Kind != PromiseCallback {
		return fmt.Errorf("unsupported promise kind %d", p.Kind)
	}

	var result *multierror.Error

	if err := p.Base.Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("base: %w", err))
	}

	if p.Kind == PromiseCallback {
		if err := p.Callback.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("callback: %w", err))
		}
	}

	if p.TotalGas() > MaxTotalGas {
		result = multierror.Append(result, errTotalGas)
	}

	return result.ErrorOrNil()
}

func (a *CrossContractCallArgs) Validate() error {
	if a.Kind != CallEager && a.Kind != CallDelayed {
		return fmt.Errorf("unsupported call kind %d", a.Kind)
	}

	return a.Promise.Validate()
}

// Encode returns the wire form of the promise
func (p *PromiseArgs) Encode() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	w := borsh.NewWriter(64)
	p.write(w)

	return w.Result(), nil
}

func (p *PromiseArgs) write(w *borsh.Writer) {
	w.U8(uint8(p.Kind))

	for _, c := range p.Calls() {
		c.write(w)
	}
}

func (p *PromiseCreateArgs) write(w *borsh.Writer) {
	w.String(string(p.TargetAccountID))
	w.String(p.Method)
	w.Bytes(p.Args)
	w.U128(p.Balance())
	w.U64(uint64(p.AttachedGas))
}

// Encode returns the precompile input for the call
func (a *CrossContractCallArgs) Encode() ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	w := borsh.NewWriter(64)
	w.U8(uint8(a.Kind))
	a.Promise.write(w)

	return w.Result(), nil
}

// DecodeCrossContractCallArgs decodes and validates precompile input. Any
// failure, including trailing bytes, wraps ErrMalformedInput.
func DecodeCrossContractCallArgs(input []byte) (*CrossContractCallArgs, error) {
	r := borsh.NewReader(input)

	tag, err := r.U8()
	if err != nil {
		return nil, malformed(err)
	}

	args := &CrossContractCallArgs{Kind: CallKind(tag)}

	if args.Kind != CallEager && args.Kind != CallDelayed {
		return nil, malformed(fmt.Errorf("unsupported call kind %d", tag))
	}

	if err := args.Promise.read(r); err != nil {
		return nil, malformed(err)
	}

	if err := r.Finish(); err != nil {
		return nil, malformed(err)
	}

	if err := args.Validate(); err != nil {
		return nil, malformed(err)
	}

	return args, nil
}

// DecodePromiseArgs decodes and validates the wire form of a promise
func DecodePromiseArgs(input []byte) (*PromiseArgs, error) {
	r := borsh.NewReader(input)

	p := &PromiseArgs{}

	if err := p.read(r); err != nil {
		return nil, malformed(err)
	}

	if err := r.Finish(); err != nil {
		return nil, malformed(err)
	}

	if err := p.Validate(); err != nil {
		return nil, malformed(err)
	}

	return p, nil
}

func (p *PromiseArgs) read(r *borsh.Reader) error {
	tag, err := r.U8()
	if err != nil {
		return err
	}

	p.Kind = PromiseKind(tag)

	switch p.Kind {
	case PromiseCreate:
		return p.Base.read(r)
	case PromiseCallback:
		if err := p.Base.read(r); err != nil {
			return fmt.Errorf("base: %w", err)
		}

		if err := p.Callback.read(r); err != nil {
			return fmt.Errorf("callback: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("unsupported promise kind %d", tag)
	}
}

func (p *PromiseCreateArgs) read(r *borsh.Reader) error {
	target, err := r.String()
	if err != nil {
		return fmt.Errorf("target account: %w", err)
	}

	method, err := r.String()
	if err != nil {
		return fmt.Errorf("method: %w", err)
	}

	args, err := r.Bytes()
	if err != nil {
		return fmt.Errorf("args: %w", err)
	}

	balance, err := r.U128()
	if err != nil {
		return fmt.Errorf("attached balance: %w", err)
	}

	gas, err := r.U64()
	if err != nil {
		return fmt.Errorf("attached gas: %w", err)
	}

	p.TargetAccountID = types.AccountID(target)
	p.Method = method
	p.Args = args
	p.AttachedBalance = balance
	p.AttachedGas = types.NearGas(gas)

	return nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedInput, err)
}
