package slug

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// pinyinTable covers a small set of common characters. Anything missing
// passes through unchanged.
var pinyinTable = map[rune]string{
	'的': "de", '一': "yi", '是': "shi", '在': "zai", '不': "bu",
	'了': "le", '有': "you", '和': "he", '人': "ren", '这': "zhe",
	'中': "zhong", '大': "da", '为': "wei", '上': "shang", '个': "ge",
	'国': "guo", '我': "wo", '以': "yi", '要': "yao", '他': "ta",
	'时': "shi", '来': "lai", '用': "yong", '们': "men", '生': "sheng",
	'到': "dao", '作': "zuo", '地': "di", '于': "yu", '出': "chu",
	'就': "jiu", '分': "fen", '对': "dui", '成': "cheng", '会': "hui",
	'可': "ke", '主': "zhu", '发': "fa", '年': "nian", '动': "dong",
	'同': "tong", '工': "gong", '也': "ye", '能': "neng", '下': "xia",
	'过': "guo", '子': "zi", '说': "shuo", '产': "chan", '见': "jian",
	'开': "kai", '好': "hao", '文': "wen", '章': "zhang", '长': "chang",
	'如': "ru", '博': "bo", '客': "ke", '标': "biao", '题': "ti",
	'始': "shi", '你': "ni", '旅': "lv", '程': "cheng",
}

// pinyinKeywordLength is how many leading runes of the title are kept
const pinyinKeywordLength = 5

// PinyinTransliterator is the offline last-resort strategy. It keeps the
// first few characters of the title and appends a timestamp suffix.
type PinyinTransliterator struct {
	now func() time.Time
}

// NewPinyinTransliterator creates the offline strategy
func NewPinyinTransliterator() *PinyinTransliterator {
	return &PinyinTransliterator{now: time.Now}
}

func (p *PinyinTransliterator) Name() string {
	return "pinyin"
}

// Translate maps the first five runes through the table and appends the
// last six digits of the current epoch milliseconds.
func (p *PinyinTransliterator) Translate(ctx context.Context, text string) (string, error) {
	runes := []rune(text)
	if len(runes) > pinyinKeywordLength {
		runes = runes[:pinyinKeywordLength]
	}

	var b strings.Builder
	for _, r := range runes {
		if py, ok := pinyinTable[r]; ok && unicode.Is(unicode.Han, r) {
			b.WriteString(py)
			continue
		}
		b.WriteRune(r)
	}

	ms := fmt.Sprintf("%d", p.now().UnixMilli())
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("%s-%s", b.String(), ms), nil
}
