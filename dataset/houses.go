package dataset

import (
	"image/color"

	"github.com/YuminosukeSato/dslr/pkg/errors"
)

// Houses は寮名のクラス表。インデックスがそのままクラス番号になる（アルファベット順）。
var Houses = []string{"Gryffindor", "Hufflepuff", "Ravenclaw", "Slytherin"}

// Colors はプロットで使う寮ごとの色
var Colors = map[string]color.RGBA{
	"Gryffindor": {R: 0xD6, G: 0x27, B: 0x28, A: 0xFF},
	"Hufflepuff": {R: 0xEC, G: 0xB9, B: 0x39, A: 0xFF},
	"Ravenclaw":  {R: 0x1F, G: 0x77, B: 0xB4, A: 0xFF},
	"Slytherin":  {R: 0x2C, G: 0xA0, B: 0x2C, A: 0xFF},
}

// HouseIndex は寮名のクラス番号を返す。未知の名前なら -1。
func HouseIndex(name string) int {
	for i, h := range Houses {
		if h == name {
			return i
		}
	}
	return -1
}

// HouseName はクラス番号に対応する寮名を返す
func HouseName(idx int) (string, error) {
	if idx < 0 || idx >= len(Houses) {
		return "", errors.NewValueError("HouseName", "class index out of range")
	}
	return Houses[idx], nil
}

// IsHouse reports whether name is one of the four houses.
func IsHouse(name string) bool {
	return HouseIndex(name) >= 0
}
