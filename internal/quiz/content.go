package quiz

import (
	"fmt"
	"strings"
)

// Mode selects a question set of the noun lesson
type Mode string

const (
	ModeTypes     Mode = "types"
	ModeFunctions Mode = "functions"
)

// LessonID identifies the noun lesson in attempt history
const LessonID = "noun"

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTypes:
		return ModeTypes, nil
	case ModeFunctions:
		return ModeFunctions, nil
	}
	return "", fmt.Errorf("unknown quiz mode %q", s)
}

// Modes lists the available modes in menu order
func Modes() []Mode {
	return []Mode{ModeTypes, ModeFunctions}
}

// Prompt is the text of a question. Focus is the highlighted word in a
// sentence; it is empty when the whole prompt is the subject of the question.
type Prompt struct {
	Before string
	Focus  string
	After  string
}

// String returns the prompt as plain text
func (p Prompt) String() string {
	return p.Before + p.Focus + p.After
}

// Question is one immutable quiz item. Answer is always one of Options.
type Question struct {
	Prompt  Prompt
	Answer  string
	Options []string
	Hint    string
	Explain string
}

var typeOptions = []string{"Common Noun", "Proper Noun", "Abstract Noun", "Collective Noun"}

// TypeOptions returns the four category labels shared by every types question
func TypeOptions() []string {
	return append([]string(nil), typeOptions...)
}

func typeQ(word, answer, hint, explain string) Question {
	return Question{Prompt: Prompt{Before: word}, Answer: answer, Options: typeOptions, Hint: hint, Explain: explain}
}

func funcQ(before, focus, after, answer, hint, explain string, options ...string) Question {
	return Question{Prompt: Prompt{Before: before, Focus: focus, After: after}, Answer: answer, Options: options, Hint: hint, Explain: explain}
}

const (
	optSubject    = "Subject (Chủ ngữ)"
	optObject     = "Object (Tân ngữ)"
	optObjVerb    = "Object of Verb (Tân ngữ động từ)"
	optObjPrep    = "Object of Prep (Tân ngữ giới từ)"
	optComplement = "Complement (Bổ ngữ)"
	optPossShort  = "Possessive (Sở hữu)"
	optPossessive = "Possessive (Sở hữu cách)"
)

var typeQuestions = []Question{
	typeQ("Teacher", "Common Noun", "Chỉ nghề nghiệp chung chung.", "'Teacher' là danh từ chung chỉ người."),
	typeQ("Hanoi", "Proper Noun", "Tên một thành phố cụ thể.", "'Hanoi' là tên riêng, luôn viết hoa."),
	typeQ("Happiness", "Abstract Noun", "Cảm xúc, không thể sờ thấy.", "'Happiness' là danh từ trừu tượng."),
	typeQ("Team", "Collective Noun", "Một nhóm người.", "'Team' là danh từ tập hợp."),
	typeQ("Microsoft", "Proper Noun", "Tên công ty cụ thể.", "Tên riêng của tổ chức, viết hoa."),
	typeQ("Courage", "Abstract Noun", "Sự dũng cảm.", "'Courage' là danh từ trừu tượng chỉ phẩm chất."),
	typeQ("London", "Proper Noun", "Thủ đô nước Anh.", "Tên riêng địa danh."),
	typeQ("Audience", "Collective Noun", "Nhóm khán giả.", "'Audience' là danh từ tập hợp."),
	typeQ("River", "Common Noun", "Dòng sông (chung chung).", "'River' là danh từ chung."),
	typeQ("Freedom", "Abstract Noun", "Sự tự do.", "Khái niệm trừu tượng."),
	typeQ("Monday", "Proper Noun", "Một ngày trong tuần.", "Các thứ trong tuần là Danh từ riêng."),
	typeQ("Army", "Collective Noun", "Quân đội.", "'Army' là tập hợp lính."),
	typeQ("Friendship", "Abstract Noun", "Tình bạn.", "Mối quan hệ tình cảm -> Trừu tượng."),
	typeQ("Doctor", "Common Noun", "Nghề nghiệp bác sĩ.", "Danh từ chung chỉ người."),
	typeQ("Toyota", "Proper Noun", "Tên hãng xe.", "Thương hiệu cụ thể là danh từ riêng."),
	typeQ("Flock", "Collective Noun", "Bầy chim/cừu.", "'Flock' là danh từ tập hợp."),
	typeQ("July", "Proper Noun", "Tháng 7.", "Tháng trong năm là Danh từ riêng."),
	typeQ("Honesty", "Abstract Noun", "Tính trung thực.", "Phẩm chất đạo đức -> Trừu tượng."),
	typeQ("Computer", "Common Noun", "Đồ vật điện tử.", "Danh từ chung."),
	typeQ("Titanic", "Proper Noun", "Tên con tàu.", "Tên riêng của tàu."),
}

var functionQuestions = []Question{
	funcQ("", "Tom", " arrived late.", optSubject, "Đứng trước động từ.", "Tom thực hiện hành động -> Chủ ngữ.",
		optSubject, optObject, optComplement, optPossShort),
	funcQ("I saw ", "Tom", ".", optObjVerb, "Đứng sau động từ 'saw'.", "Tom chịu tác động -> Tân ngữ.",
		optSubject, optObjVerb, optComplement, optObjPrep),
	funcQ("She is a ", "teacher", ".", optComplement, "Đứng sau tobe 'is'.", "Giải thích She là ai -> Bổ ngữ.",
		optObject, optComplement, optSubject, optPossShort),
	funcQ("I talk to ", "Tom", ".", optObjPrep, "Đứng sau giới từ 'to'.", "Đứng sau giới từ -> Tân ngữ giới từ.",
		optObjVerb, optObjPrep, optSubject, optComplement),
	funcQ("This is ", "Tom's", " book.", optPossessive, "Có dấu 's.", "Chỉ sự sở hữu -> Sở hữu cách.",
		optSubject, optPossessive, optObject, optComplement),
	funcQ("", "Birds", " can fly.", optSubject, "Đứng đầu câu.", "Chủ thể hành động -> Chủ ngữ.",
		optSubject, optObject, optComplement, optPossShort),
	funcQ("She bought a ", "car", ".", optObjVerb, "Đứng sau động từ 'bought'.", "Mua cái gì? -> Tân ngữ động từ.",
		optSubject, optObjVerb, optComplement, optPossShort),
	funcQ("They became ", "doctors", ".", optComplement, "Đứng sau động từ nối.", "Sau động từ nối là Bổ ngữ.",
		optObject, optComplement, optSubject, optPossShort),
	funcQ("We live in ", "Vietnam", ".", optObjPrep, "Đứng sau giới từ 'in'.", "Tân ngữ giới từ.",
		optObjVerb, optObjPrep, optSubject, optComplement),
	funcQ("", "The sun", " is hot.", optSubject, "Đứng đầu câu.", "Chủ ngữ của câu.",
		optSubject, optObject, optComplement, optPossShort),
	funcQ("Looking for ", "keys", ".", optObjPrep, "Sau giới từ 'for'.", "Tân ngữ giới từ.",
		optObjVerb, optObjPrep, optSubject, optComplement),
	funcQ("He seems ", "nice", ".", optComplement, "Sau 'seems'.", "Mô tả chủ ngữ -> Bổ ngữ.",
		optObject, optComplement, optSubject, optPossShort),
	funcQ("", "Mary's", " cat.", optPossessive, "Có dấu 's.", "Sở hữu cách.",
		optSubject, optPossessive, optObject, optComplement),
	funcQ("Listen to ", "music", ".", optObjPrep, "Sau 'to'.", "Tân ngữ giới từ.",
		optObjVerb, optObjPrep, optSubject, optComplement),
	funcQ("Loves ", "coffee", ".", optObjVerb, "Sau 'loves'.", "Tân ngữ động từ.",
		optSubject, optObjVerb, optComplement, optPossShort),
}

// Questions returns the question set of a mode. The returned slice is a copy;
// the questions themselves are shared and must not be modified.
func Questions(mode Mode) []Question {
	switch mode {
	case ModeTypes:
		return append([]Question(nil), typeQuestions...)
	case ModeFunctions:
		return append([]Question(nil), functionQuestions...)
	}
	return nil
}

// Contains reports whether choice is one of the question's options
func (q Question) Contains(choice string) bool {
	for _, o := range q.Options {
		if o == choice {
			return true
		}
	}
	return false
}
