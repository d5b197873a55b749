package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint32
		wantErr bool
	}{
		{name: "flash base", addr: 0x08000000},
		{name: "word aligned", addr: 0x08000404},
		{name: "ram base", addr: 0x20000000},
		{name: "off by one", addr: 0x08000001, wantErr: true},
		{name: "half word", addr: 0x08000002, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				var alignErr *AlignmentError
				if !errors.As(err, &alignErr) {
					t.Fatalf("expected AlignmentError, got %v", err)
				}
				if alignErr.Address != tt.addr {
					t.Errorf("error address = 0x%08X, want 0x%08X", alignErr.Address, tt.addr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestEncodeAddress(t *testing.T) {
	tests := []struct {
		name string
		addr uint32
		want []byte
	}{
		{
			name: "flash base",
			addr: 0x08000000,
			want: []byte{0x08, 0x00, 0x00, 0x00, 0x08},
		},
		{
			name: "mixed bytes",
			addr: 0x0800_1004,
			want: []byte{0x08, 0x00, 0x10, 0x04, 0x1C},
		},
		{
			name: "zero",
			addr: 0,
			want: []byte{0x00, 0x00, 0x00, 0x00, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeAddress(tt.addr)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeAddress = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestEncodeReadLength(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		want    []byte
		wantErr bool
	}{
		{name: "one byte", n: 1, want: []byte{0x00, 0xFF}},
		{name: "max transfer", n: 256, want: []byte{0xFF, 0x00}},
		{name: "typical", n: 16, want: []byte{0x0F, 0xF0}},
		{name: "zero", n: 0, wantErr: true},
		{name: "too large", n: 257, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeReadLength(tt.n)
			if tt.wantErr {
				var lenErr *LengthError
				if !errors.As(err, &lenErr) {
					t.Fatalf("expected LengthError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeReadLength = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestPadWriteData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{
			name: "aligned untouched",
			data: []byte{1, 2, 3, 4},
			want: []byte{1, 2, 3, 4},
		},
		{
			name: "three bytes padded to four",
			data: []byte{1, 2, 3},
			want: []byte{1, 2, 3, 0xFF},
		},
		{
			name: "one byte padded to four",
			data: []byte{1},
			want: []byte{1, 0xFF, 0xFF, 0xFF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PadWriteData(tt.data)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("PadWriteData = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestEncodeWriteData(t *testing.T) {
	t.Run("three bytes padded", func(t *testing.T) {
		got, err := EncodeWriteData([]byte{0x01, 0x02, 0x03})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// length byte is padded size minus one
		want := []byte{0x03, 0x01, 0x02, 0x03, 0xFF, 0xFC}
		if !bytes.Equal(got, want) {
			t.Errorf("EncodeWriteData = % X, want % X", got, want)
		}
	})

	t.Run("full transfer", func(t *testing.T) {
		data := bytes.Repeat([]byte{0xA5}, 256)
		got, err := EncodeWriteData(data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got[0] != 0xFF {
			t.Errorf("length byte = 0x%02X, want 0xFF", got[0])
		}
		if len(got) != 258 {
			t.Errorf("group size = %d, want 258", len(got))
		}
		if !ValidateChecksum(got) {
			t.Error("checksum over length and data is invalid")
		}
	})

	t.Run("empty rejected", func(t *testing.T) {
		if _, err := EncodeWriteData(nil); err == nil {
			t.Fatal("expected error for empty data")
		}
	})

	t.Run("oversized rejected", func(t *testing.T) {
		if _, err := EncodeWriteData(make([]byte, 257)); err == nil {
			t.Fatal("expected error for oversized data")
		}
	})
}

func TestEncodeErasePages(t *testing.T) {
	t.Run("three pages", func(t *testing.T) {
		got, err := EncodeErasePages([]byte{0x00, 0x01, 0x02})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []byte{0x02, 0x00, 0x01, 0x02, 0x01}
		if !bytes.Equal(got, want) {
			t.Errorf("EncodeErasePages = % X, want % X", got, want)
		}
	})

	t.Run("empty rejected", func(t *testing.T) {
		if _, err := EncodeErasePages(nil); err == nil {
			t.Fatal("expected error for empty page list")
		}
	})

	t.Run("too many pages rejected", func(t *testing.T) {
		if _, err := EncodeErasePages(make([]byte, 256)); err == nil {
			t.Fatal("expected error for 256 pages")
		}
	})
}

func TestEncodeMassErase(t *testing.T) {
	want := []byte{0xFF, 0x00}
	if got := EncodeMassErase(); !bytes.Equal(got, want) {
		t.Errorf("EncodeMassErase = % X, want % X", got, want)
	}
}

func TestEncodeExtendedErasePages(t *testing.T) {
	t.Run("two pages", func(t *testing.T) {
		got, err := EncodeExtendedErasePages([]uint16{0x0001, 0x0102})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// count-1 big-endian, two bytes per page, xor checksum
		want := []byte{0x00, 0x01, 0x00, 0x01, 0x01, 0x02, 0x03}
		if !bytes.Equal(got, want) {
			t.Errorf("EncodeExtendedErasePages = % X, want % X", got, want)
		}
	})

	t.Run("page count on the wire", func(t *testing.T) {
		pages := make([]uint16, 5)
		got, err := EncodeExtendedErasePages(pages)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wantLen := 2 + 2*len(pages) + 1; len(got) != wantLen {
			t.Errorf("group size = %d, want %d", len(got), wantLen)
		}
		if got[0] != 0x00 || got[1] != 0x04 {
			t.Errorf("count bytes = %02X %02X, want 00 04", got[0], got[1])
		}
	})

	t.Run("empty rejected", func(t *testing.T) {
		if _, err := EncodeExtendedErasePages(nil); err == nil {
			t.Fatal("expected error for empty page list")
		}
	})
}

func TestEncodeExtendedEraseSpecial(t *testing.T) {
	tests := []struct {
		name    string
		code    uint16
		want    []byte
		wantErr bool
	}{
		{name: "mass erase", code: ExtendedMassErase, want: []byte{0xFF, 0xFF, 0x00}},
		{name: "bank 1", code: ExtendedBank1Erase, want: []byte{0xFF, 0xFE, 0x01}},
		{name: "bank 2", code: ExtendedBank2Erase, want: []byte{0xFF, 0xFD, 0x02}},
		{name: "ordinary count rejected", code: 0x0010, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeExtendedEraseSpecial(tt.code)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeExtendedEraseSpecial = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestEncodeProtectSectors(t *testing.T) {
	got, err := EncodeProtectSectors([]byte{0x00, 0x01})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{0x01, 0x00, 0x01, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeProtectSectors = % X, want % X", got, want)
	}

	if _, err := EncodeProtectSectors(nil); err == nil {
		t.Fatal("expected error for empty sector list")
	}
}

func TestEncodeSubCommand(t *testing.T) {
	want := []byte{0x01, 0x02, 0x03}
	if got := EncodeSubCommand(0x0102); !bytes.Equal(got, want) {
		t.Errorf("EncodeSubCommand = % X, want % X", got, want)
	}
}

func TestEncodeSpecialPayload(t *testing.T) {
	t.Run("empty payload", func(t *testing.T) {
		got, err := EncodeSpecialPayload(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []byte{0x00, 0x00, 0x00}
		if !bytes.Equal(got, want) {
			t.Errorf("EncodeSpecialPayload = % X, want % X", got, want)
		}
	})

	t.Run("one byte", func(t *testing.T) {
		got, err := EncodeSpecialPayload([]byte{0xAA})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []byte{0x00, 0x01, 0xAA, 0xAB}
		if !bytes.Equal(got, want) {
			t.Errorf("EncodeSpecialPayload = % X, want % X", got, want)
		}
	})
}
