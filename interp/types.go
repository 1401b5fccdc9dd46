package interp

import (
	"fmt"
	"strings"

	"github.com/slp-lang/slp/slp"
)

// TypeTag is one of the base type symbols recognized by spec §4.7, plus the
// function-signature pseudo-type used by declared parameter/return types
// and by `reflect`'s `:fn<T1,T2>R` arm selectors.
type TypeTag int

const (
	TInt TypeTag = iota
	TReal
	TStr
	TSymbol
	TNone
	TSome
	TRune
	TError
	TDatum
	TAberrant
	TListP
	TListB
	TListC
	TFn
	TForm // a user-declared form name, resolved through the form table
)

func (t TypeTag) String() string {
	switch t {
	case TInt:
		return ":int"
	case TReal:
		return ":real"
	case TStr:
		return ":str"
	case TSymbol:
		return ":symbol"
	case TNone:
		return ":none"
	case TSome:
		return ":some"
	case TRune:
		return ":rune"
	case TError:
		return ":error"
	case TDatum:
		return ":datum"
	case TAberrant:
		return ":aberrant"
	case TListP:
		return ":list-p"
	case TListB:
		return ":list-b"
	case TListC:
		return ":list-c"
	case TFn:
		return ":fn<...>"
	case TForm:
		return ":form"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

var baseTypeNames = map[string]TypeTag{
	":int":      TInt,
	":real":     TReal,
	":str":      TStr,
	":symbol":   TSymbol,
	":none":     TNone,
	":some":     TSome,
	":rune":     TRune,
	":error":    TError,
	":datum":    TDatum,
	":aberrant": TAberrant,
	":list-p":   TListP,
	":list-b":   TListB,
	":list-c":   TListC,
}

// FnSignature is the parsed form of a ":fn<T1,T2,...>R" type symbol.
type FnSignature struct {
	Params []TypeTag
	Return TypeTag
}

// ParseTypeSymbol recognizes a declared-type symbol (spec §4.7). It returns
// ok=false for anything that isn't a base type or a well-formed :fn<...>
// signature.
func ParseTypeSymbol(name string) (tag TypeTag, sig *FnSignature, ok bool) {
	if t, found := baseTypeNames[name]; found {
		return t, nil, true
	}
	if strings.HasPrefix(name, ":fn<") {
		rest := strings.TrimPrefix(name, ":fn<")
		closeIdx := strings.Index(rest, ">")
		if closeIdx < 0 {
			return 0, nil, false
		}
		paramsPart := rest[:closeIdx]
		retPart := rest[closeIdx+1:]
		retTag, _, retOK := ParseTypeSymbol(retPart)
		if !retOK {
			return 0, nil, false
		}
		var params []TypeTag
		if paramsPart != "" {
			for _, p := range strings.Split(paramsPart, ",") {
				pt, _, pOK := ParseTypeSymbol(strings.TrimSpace(p))
				if !pOK {
					return 0, nil, false
				}
				params = append(params, pt)
			}
		}
		return TFn, &FnSignature{Params: params, Return: retTag}, true
	}
	return 0, nil, false
}

// TagOf returns the base TypeTag corresponding to a cell's runtime slp.Tag.
// Aberrant and list tags map directly; there is no runtime tag that maps to
// TFn or TForm (those only exist as declared/static types).
func TagOf(t slp.Tag) (TypeTag, bool) {
	switch t {
	case slp.Integer:
		return TInt, true
	case slp.Real:
		return TReal, true
	case slp.DqList:
		return TStr, true
	case slp.Symbol:
		return TSymbol, true
	case slp.None:
		return TNone, true
	case slp.Some:
		return TSome, true
	case slp.Rune:
		return TRune, true
	case slp.ErrorTag:
		return TError, true
	case slp.Datum:
		return TDatum, true
	case slp.Aberrant:
		return TAberrant, true
	case slp.ParenList:
		return TListP, true
	case slp.BracketList:
		return TListB, true
	case slp.BraceList:
		return TListC, true
	default:
		return 0, false
	}
}

// MatchesDeclaredType implements spec §4.3's parameter/return type check: a
// declared :none disables the check (matches anything); an :aberrant
// declared type matches any lambda handle; a :fn<...> declared type matches
// a lambda handle whose recorded arity and declared parameter/return types
// equal the signature exactly.
func (it *Interpreter) MatchesDeclaredType(declared TypeTag, sig *FnSignature, value slp.Cell) bool {
	if declared == TNone {
		return true
	}
	if declared == TAberrant {
		return value.Tag() == slp.Aberrant
	}
	if declared == TFn {
		if value.Tag() != slp.Aberrant {
			return false
		}
		rec, ok := it.lambdas.Get(value.LambdaID())
		if !ok {
			return false
		}
		if sig == nil {
			return true
		}
		if len(rec.Params) != len(sig.Params) {
			return false
		}
		for i, p := range rec.Params {
			if p.Type != sig.Params[i] {
				return false
			}
		}
		return rec.Return == sig.Return
	}
	actual, ok := TagOf(value.Tag())
	if !ok {
		return false
	}
	return actual == declared
}
