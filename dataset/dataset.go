// Package dataset はHogwartsの生徒CSVを読み込み、検証して行列に変換します。
//
// 列構成は固定です:
//
//	Index, Hogwarts House, First Name, Last Name, Birthday, Best Hand, <13科目>
//
// 検証に失敗した場合は pkg/errors の ColumnMismatchError, DtypeMismatchError,
// ValueValidationError のいずれかを返します。
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/dslr/pkg/errors"
	"github.com/YuminosukeSato/dslr/pkg/log"
)

// Courses は特徴量として使う科目。順序は列順と同じ。
var Courses = []string{
	"Arithmancy",
	"Astronomy",
	"Herbology",
	"Defense Against the Dark Arts",
	"Divination",
	"Muggle Studies",
	"Ancient Runes",
	"History of Magic",
	"Transfiguration",
	"Potions",
	"Care of Magical Creatures",
	"Charms",
	"Flying",
}

// 先頭の固定列
const (
	ColIndex     = "Index"
	ColHouse     = "Hogwarts House"
	ColFirstName = "First Name"
	ColLastName  = "Last Name"
	ColBirthday  = "Birthday"
	ColBestHand  = "Best Hand"
)

// Header は期待するCSVヘッダー
var Header = append([]string{ColIndex, ColHouse, ColFirstName, ColLastName, ColBirthday, ColBestHand}, Courses...)

const numMeta = 6

const birthdayLayout = "2006-01-02"

var birthdayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Mode は読み込み時の検証ルールを切り替える
type Mode int

const (
	// Training は寮名を必須とし、空欄を含む行を捨てる
	Training Mode = iota
	// Prediction は寮名の空欄を許し、全行を保持する（科目の空欄はNaN）
	Prediction
)

func (m Mode) String() string {
	switch m {
	case Training:
		return "training"
	case Prediction:
		return "prediction"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Student はCSVの1行
type Student struct {
	Index     int
	House     string // Predictionでは空のことがある
	FirstName string
	LastName  string
	Birthday  time.Time // 空欄ならゼロ値
	BestHand  string
	Scores    []float64 // Courses順、空欄はNaN
}

// Dataset は検証済みの生徒一覧
type Dataset struct {
	Path     string
	Mode     Mode
	Students []Student

	// Dropped はTrainingで空欄のため捨てた行数
	Dropped int
}

// Load はpathのCSVを読み込む。ファイルが無ければ MissingFileError を返す。
func Load(path string, mode Mode) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewMissingFileError(path, err)
		}
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	return Read(f, path, mode)
}

// Read はrからCSVを読み込む。nameはエラーメッセージに使う。
func Read(r io.Reader, name string, mode Mode) (*Dataset, error) {
	logger := log.GetLoggerWithName("dataset")

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewColumnMismatchError(name, Header, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", name)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !equalStrings(header, Header) {
		return nil, errors.NewColumnMismatchError(name, Header, header)
	}

	ds := &Dataset{Path: name, Mode: mode}
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}
		if len(record) != len(Header) {
			return nil, errors.NewColumnMismatchError(name, Header, record)
		}

		s, complete, err := parseRecord(name, row, record, mode)
		if err != nil {
			return nil, err
		}
		if mode == Training && !complete {
			ds.Dropped++
			continue
		}
		ds.Students = append(ds.Students, s)
	}

	logger.Debug("Dataset loaded",
		log.PathKey, name,
		log.SamplesKey, len(ds.Students),
		log.DroppedKey, ds.Dropped,
		"mode", mode.String(),
	)
	return ds, nil
}

// parseRecord は1行を検証する。completeは空欄が一つも無いときtrue。
func parseRecord(path string, row int, record []string, mode Mode) (Student, bool, error) {
	complete := true
	for _, v := range record {
		if strings.TrimSpace(v) == "" {
			complete = false
			break
		}
	}

	var s Student

	idx, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return s, false, errors.NewDtypeMismatchError(path, ColIndex, row, "int64", record[0])
	}
	s.Index = idx

	s.House = strings.TrimSpace(record[1])
	switch {
	case s.House == "" && mode == Prediction:
	case s.House == "":
		return s, false, errors.NewValueValidationError(path, ColHouse, row, record[1],
			"house is required for training")
	case !IsHouse(s.House):
		return s, false, errors.NewValueValidationError(path, ColHouse, row, record[1],
			"must be one of "+strings.Join(Houses, ", "))
	}

	s.FirstName = record[2]
	s.LastName = record[3]

	if b := strings.TrimSpace(record[4]); b != "" {
		if !birthdayPattern.MatchString(b) {
			return s, false, errors.NewValueValidationError(path, ColBirthday, row, record[4],
				"should be valid YYYY-MM-DD")
		}
		t, err := time.Parse(birthdayLayout, b)
		if err != nil {
			return s, false, errors.NewValueValidationError(path, ColBirthday, row, record[4],
				"should be valid YYYY-MM-DD")
		}
		s.Birthday = t
	}

	s.BestHand = strings.TrimSpace(record[5])
	if s.BestHand != "Right" && s.BestHand != "Left" {
		if s.BestHand != "" || mode == Training {
			return s, false, errors.NewValueValidationError(path, ColBestHand, row, record[5],
				"must be Right or Left")
		}
	}

	s.Scores = make([]float64, len(Courses))
	for j, course := range Courses {
		raw := strings.TrimSpace(record[numMeta+j])
		if raw == "" {
			s.Scores[j] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return s, false, errors.NewDtypeMismatchError(path, course, row, "float64", record[numMeta+j])
		}
		s.Scores[j] = v
	}

	return s, complete, nil
}

// Len は行数
func (d *Dataset) Len() int {
	return len(d.Students)
}

// Features は rows × len(Courses) の行列を返す。行が無ければnil。
func (d *Dataset) Features() *mat.Dense {
	if len(d.Students) == 0 {
		return nil
	}
	X := mat.NewDense(len(d.Students), len(Courses), nil)
	for i, s := range d.Students {
		X.SetRow(i, s.Scores)
	}
	return X
}

// Labels は寮のクラス番号を返す。寮が空の行は -1。
func (d *Dataset) Labels() []int {
	y := make([]int, len(d.Students))
	for i, s := range d.Students {
		y[i] = HouseIndex(s.House)
	}
	return y
}

// HasLabels は全行に寮名があるかを返す
func (d *Dataset) HasLabels() bool {
	if len(d.Students) == 0 {
		return false
	}
	for _, s := range d.Students {
		if s.House == "" {
			return false
		}
	}
	return true
}

// Column は科目の値を行順に返す
func (d *Dataset) Column(course string) ([]float64, error) {
	j := CourseIndex(course)
	if j < 0 {
		return nil, errors.NewValueError("Dataset.Column", fmt.Sprintf("unknown course %q", course))
	}
	out := make([]float64, len(d.Students))
	for i, s := range d.Students {
		out[i] = s.Scores[j]
	}
	return out, nil
}

// ByHouse は科目の値を寮ごとに分ける。NaNは除く。
func (d *Dataset) ByHouse(course string) (map[string][]float64, error) {
	j := CourseIndex(course)
	if j < 0 {
		return nil, errors.NewValueError("Dataset.ByHouse", fmt.Sprintf("unknown course %q", course))
	}
	out := make(map[string][]float64, len(Houses))
	for _, s := range d.Students {
		if s.House == "" || math.IsNaN(s.Scores[j]) {
			continue
		}
		out[s.House] = append(out[s.House], s.Scores[j])
	}
	return out, nil
}

// CourseIndex は科目の列番号（特徴量インデックス）を返す。未知なら -1。
func CourseIndex(course string) int {
	for j, c := range Courses {
		if c == course {
			return j
		}
	}
	return -1
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != b[i] {
			return false
		}
	}
	return true
}
