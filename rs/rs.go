// Package rs implements the Reed-Solomon codes used on the 978 MHz UAT
// data link.
//
// All three codes operate on 8-bit symbols over GF(2^8) generated by the
// field polynomial 0x187, with the code generator rooted at alpha^120
// (fcr = 120) and primitive element 1. They differ only in message and
// codeword length:
//
//	FIS-B ground uplink block: (92, 72), 10 correctable symbols.
//	ADS-B short:               (30, 18),  6 correctable symbols.
//	ADS-B long:                (48, 34),  7 correctable symbols.
//
// Codewords shorter than 255 symbols are shortened codes; the decoder
// treats the missing leading symbols as zero.
//
// ref: DO-282B §2.2.3 (UAT MOPS, FEC parameters)
package rs

import (
	"errors"
	"fmt"
)

// Field and code parameters shared by every UAT code.
const (
	// GFPoly is the GF(2^8) field generator polynomial.
	GFPoly = 0x187
	// FCR is the first consecutive root of the code generator polynomial.
	FCR = 120
	// Prim is the primitive element used to generate polynomial roots.
	Prim = 1
)

const (
	nn = 255 // symbols per full-length codeword.
	a0 = nn  // index form of the zero element (log of zero).
)

// ErrUncorrectable reports a received word with more symbol errors than
// the code can repair.
var ErrUncorrectable = errors.New("rs: uncorrectable codeword")

// A Code is one parameterisation of the UAT Reed-Solomon code. A Code is
// immutable after construction and may be shared freely.
type Code struct {
	k      int // message symbols.
	n      int // codeword symbols.
	nroots int // parity symbols.
	pad    int // implicit leading zero symbols of the shortened code.
	iprim  int // prim-th root of 1, used to map Chien roots to locations.

	alphaTo [nn + 1]byte // index -> polynomial form.
	indexOf [nn + 1]int  // polynomial -> index form; indexOf[0] == a0.
	genpoly []int        // generator polynomial, index form, degree nroots.
}

// Pre-parameterised codes for the three UAT codeword layouts.
var (
	FISB      = mustNew(72, 92)
	ADSBShort = mustNew(18, 30)
	ADSBLong  = mustNew(34, 48)
)

// New returns the (n, k) UAT Reed-Solomon code.
func New(k, n int) (*Code, error) {
	if k <= 0 || n <= k || n > nn {
		return nil, fmt.Errorf("rs.New: invalid code parameters (%d, %d)", n, k)
	}

	c := &Code{
		k:      k,
		n:      n,
		nroots: n - k,
		pad:    nn - n,
	}

	// Generate the Galois field log/antilog tables.
	c.indexOf[0] = a0
	c.alphaTo[nn] = 0
	sr := 1
	for i := 0; i < nn; i++ {
		c.indexOf[sr] = i
		c.alphaTo[i] = byte(sr)
		sr <<= 1
		if sr&0x100 != 0 {
			sr ^= GFPoly
		}
		sr &= nn
	}
	if sr != 1 {
		return nil, fmt.Errorf("rs.New: field generator polynomial %#x is not primitive", GFPoly)
	}

	// Find the prim-th root of 1, used to map Chien search roots back to
	// symbol locations. With Prim == 1 this is simply 1.
	iprim := 1
	for iprim%Prim != 0 {
		iprim += nn
	}
	c.iprim = iprim / Prim

	// Form the code generator polynomial from its roots
	// alpha^FCR .. alpha^(FCR+nroots-1).
	gp := make([]byte, c.nroots+1)
	gp[0] = 1
	for i, root := 0, FCR*Prim; i < c.nroots; i, root = i+1, root+Prim {
		gp[i+1] = 1
		for j := i; j > 0; j-- {
			if gp[j] != 0 {
				gp[j] = gp[j-1] ^ c.alphaTo[c.modnn(c.indexOf[gp[j]]+root)]
			} else {
				gp[j] = gp[j-1]
			}
		}
		// gp[0] can never be zero.
		gp[0] = c.alphaTo[c.modnn(c.indexOf[gp[0]]+root)]
	}

	// Keep the generator in index form for quicker encoding.
	c.genpoly = make([]int, c.nroots+1)
	for i := range gp {
		c.genpoly[i] = c.indexOf[gp[i]]
	}

	return c, nil
}

func mustNew(k, n int) *Code {
	c, err := New(k, n)
	if err != nil {
		panic(err)
	}
	return c
}

// K returns the number of message symbols per codeword.
func (c *Code) K() int { return c.k }

// N returns the total number of symbols per codeword.
func (c *Code) N() int { return c.n }

// T returns the number of symbol errors the code can correct.
func (c *Code) T() int { return c.nroots / 2 }

// modnn reduces x modulo nn for Galois field index arithmetic.
func (c *Code) modnn(x int) int {
	for x >= nn {
		x -= nn
		x = (x >> 8) + (x & nn)
	}
	return x
}

// Encode appends the nroots parity symbols of msg and returns the full
// n-symbol codeword. The message must be exactly K symbols long.
func (c *Code) Encode(msg []byte) ([]byte, error) {
	if len(msg) != c.k {
		return nil, fmt.Errorf("rs.Code.Encode: invalid message length; expected %d, got %d", c.k, len(msg))
	}

	// Systematic encoding with a feedback shift register; the implicit
	// leading zeros of the shortened code never disturb the register.
	parity := make([]byte, c.nroots)
	for i := 0; i < c.k; i++ {
		feedback := c.indexOf[msg[i]^parity[0]]
		if feedback != a0 {
			for j := 1; j < c.nroots; j++ {
				parity[j] ^= c.alphaTo[c.modnn(feedback+c.genpoly[c.nroots-j])]
			}
		}
		copy(parity, parity[1:])
		if feedback != a0 {
			parity[c.nroots-1] = c.alphaTo[c.modnn(feedback+c.genpoly[0])]
		} else {
			parity[c.nroots-1] = 0
		}
	}

	word := make([]byte, 0, c.n)
	word = append(word, msg...)
	word = append(word, parity...)
	return word, nil
}

// Decode corrects up to T symbol errors in the received word and returns
// the corrected K-symbol message together with the number of symbol
// errors repaired. The received word is not modified. ErrUncorrectable
// is returned when the word cannot be repaired.
func (c *Code) Decode(received []byte) (msg []byte, ecount int, err error) {
	if len(received) != c.n {
		return nil, 0, fmt.Errorf("rs.Code.Decode: invalid codeword length; expected %d, got %d", c.n, len(received))
	}

	// Work on a full-length word with the shortened prefix zero-filled.
	data := make([]byte, nn)
	copy(data[c.pad:], received)

	// Form the syndromes: evaluate data(x) at the roots of g(x).
	var s [nn]int
	syn := 0
	for i := 0; i < c.nroots; i++ {
		v := int(data[0])
		for j := 1; j < nn; j++ {
			if v == 0 {
				v = int(data[j])
			} else {
				v = int(data[j]) ^ int(c.alphaTo[c.modnn(c.indexOf[v]+(FCR+i)*Prim)])
			}
		}
		syn |= v
		s[i] = c.indexOf[v]
	}
	if syn == 0 {
		// The received word is already a codeword.
		return append([]byte(nil), received[:c.k]...), 0, nil
	}

	// Berlekamp-Massey: determine the error locator polynomial.
	lambda := make([]int, c.nroots+1)
	b := make([]int, c.nroots+1)
	t := make([]int, c.nroots+1)
	lambda[0] = 1
	for i := range b {
		b[i] = c.indexOf[lambda[i]]
	}

	el := 0
	for r := 1; r <= c.nroots; r++ {
		// Discrepancy at step r, in polynomial form.
		discr := 0
		for i := 0; i < r; i++ {
			if lambda[i] != 0 && s[r-i-1] != a0 {
				discr ^= int(c.alphaTo[c.modnn(c.indexOf[lambda[i]]+s[r-i-1])])
			}
		}
		if c.indexOf[discr] == a0 {
			// B(x) <- x*B(x)
			copy(b[1:], b)
			b[0] = a0
			continue
		}
		d := c.indexOf[discr]
		// T(x) <- lambda(x) - discr*x*B(x)
		t[0] = lambda[0]
		for i := 0; i < c.nroots; i++ {
			if b[i] != a0 {
				t[i+1] = lambda[i+1] ^ int(c.alphaTo[c.modnn(d+b[i])])
			} else {
				t[i+1] = lambda[i+1]
			}
		}
		if 2*el <= r-1 {
			el = r - el
			// B(x) <- inv(discr) * lambda(x)
			for i := 0; i <= c.nroots; i++ {
				if lambda[i] == 0 {
					b[i] = a0
				} else {
					b[i] = c.modnn(c.indexOf[lambda[i]] - d + nn)
				}
			}
		} else {
			// B(x) <- x*B(x)
			copy(b[1:], b)
			b[0] = a0
		}
		copy(lambda, t)
	}

	// Convert lambda to index form and find its degree.
	degLambda := 0
	for i := range lambda {
		lambda[i] = c.indexOf[lambda[i]]
		if lambda[i] != a0 {
			degLambda = i
		}
	}

	// Chien search for the roots of the error locator polynomial.
	reg := make([]int, c.nroots+1)
	copy(reg[1:], lambda[1:])
	var root, loc []int
	for i, k := 1, c.iprim-1; i <= nn; i, k = i+1, c.modnn(k+c.iprim) {
		q := 1 // lambda[0] is always 1.
		for j := degLambda; j > 0; j-- {
			if reg[j] != a0 {
				reg[j] = c.modnn(reg[j] + j)
				q ^= int(c.alphaTo[reg[j]])
			}
		}
		if q != 0 {
			continue
		}
		root = append(root, i)
		loc = append(loc, k)
		if len(root) == degLambda {
			break
		}
	}
	if len(root) != degLambda {
		// deg(lambda) != number of roots: uncorrectable.
		return nil, 0, ErrUncorrectable
	}

	// Error evaluator omega(x) = s(x)*lambda(x) mod x^nroots, index form.
	omega := make([]int, c.nroots+1)
	degOmega := 0
	for i := 0; i < c.nroots; i++ {
		tmp := 0
		j := i
		if degLambda < i {
			j = degLambda
		}
		for ; j >= 0; j-- {
			if s[i-j] != a0 && lambda[j] != a0 {
				tmp ^= int(c.alphaTo[c.modnn(s[i-j]+lambda[j])])
			}
		}
		if tmp != 0 {
			degOmega = i
		}
		omega[i] = c.indexOf[tmp]
	}
	omega[c.nroots] = a0

	// Forney: compute the error magnitudes and apply them.
	for j := len(root) - 1; j >= 0; j-- {
		num1 := 0
		for i := degOmega; i >= 0; i-- {
			if omega[i] != a0 {
				num1 ^= int(c.alphaTo[c.modnn(omega[i]+i*root[j])])
			}
		}
		num2 := int(c.alphaTo[c.modnn(root[j]*(FCR-1)+nn)])
		den := 0
		// lambda[i+1] for even i is the formal derivative of lambda.
		i := degLambda
		if c.nroots-1 < i {
			i = c.nroots - 1
		}
		for i &= ^1; i >= 0; i -= 2 {
			if lambda[i+1] != a0 {
				den ^= int(c.alphaTo[c.modnn(lambda[i+1]+i*root[j])])
			}
		}
		if den == 0 {
			return nil, 0, ErrUncorrectable
		}
		if loc[j] < c.pad {
			// A correction inside the implicit zero prefix of the
			// shortened code can only be a miscorrection.
			return nil, 0, ErrUncorrectable
		}
		if num1 != 0 {
			data[loc[j]] ^= c.alphaTo[c.modnn(c.indexOf[num1]+c.indexOf[num2]+nn-c.indexOf[den])]
		}
	}

	return append([]byte(nil), data[c.pad:c.pad+c.k]...), len(root), nil
}
