// Package prompts builds the chat prompts sent to the LLM gateway. The
// prompt text is Chinese because the graded exams and answer sheets are
// from Chinese English-language classes; the requested JSON schemas are
// the wire contract the normalizer expects.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LIANENGUANG/AI-Education/internal/model"
)

// AnalyzeExamSystem primes the model for exam-paper structure extraction.
const AnalyzeExamSystem = "你是一个专业的英语试卷分析助手，负责从试卷文本中提取结构化的题目数据。"

// ParseSheetSystem primes the model for answer-sheet parsing.
const ParseSheetSystem = "你是一个答题卡数据整理助手，负责把杂乱的答题记录整理成规范的JSON数据。"

// AnalyzeExam asks the model to classify the exam text into the three
// question categories and return them as a single JSON object.
func AnalyzeExam(content string) string {
	var sb strings.Builder
	sb.WriteString("请分析以下英语试卷内容，按照以下三种题型分类提取题目：\n\n")
	sb.WriteString("1. 语法选择题 - 通常在第一部分，测试语法知识\n")
	sb.WriteString("2. 阅读题 - 包含阅读材料和相关问题\n")
	sb.WriteString("3. 语言运用题 - 完型填空，在短文中选择最佳选项\n\n")
	sb.WriteString("请按以下JSON格式返回：\n")
	sb.WriteString(`{
    "grammar_questions": [
        {
            "question_number": 1,
            "question_text": "题目内容",
            "options": ["A. 选项1", "B. 选项2", "C. 选项3", "D. 选项4"],
            "correct_answer": "A"
        }
    ],
    "reading_questions": [
        {
            "passage_title": "A",
            "passage_text": "阅读材料原文",
            "questions": [
                {
                    "question_number": 21,
                    "question_text": "题目内容",
                    "options": ["A. 选项1", "B. 选项2", "C. 选项3", "D. 选项4"],
                    "correct_answer": "A"
                }
            ]
        }
    ],
    "language_use_questions": [
        {
            "passage_text": "语言运用（完型填空）原文（用___表示空格）",
            "questions": [
                {
                    "question_number": 29,
                    "blank_number": 29,
                    "options": ["A. study", "B. rent", "C. visit", "D. settle"],
                    "correct_answer": "D"
                }
            ]
        }
    ]
}`)
	sb.WriteString("\n\n文档内容：\n")
	sb.WriteString(content)
	sb.WriteString("\n\n请严格按照JSON格式返回，不要包含其他解释文字。\n")
	return sb.String()
}

// ParseAnswerSheet asks the model to turn the reconstructed answer-sheet
// lines into the students JSON contract. Answer keys are question numbers
// as strings; unanswered placeholders must be omitted.
func ParseAnswerSheet(sheetText string) string {
	var sb strings.Builder
	sb.WriteString("以下是从学生答题卡中提取的文本，每行是一名学生，格式为“姓名: 答案序列”。\n")
	sb.WriteString("答案按题号顺序排列，从第1题开始；下划线 _ 表示该题未作答。\n\n")
	sb.WriteString("请按以下JSON格式返回：\n")
	sb.WriteString(`{
    "students": [
        {
            "name": "张三",
            "answers": {"1": "A", "2": "B", "4": "D"}
        }
    ]
}`)
	sb.WriteString("\n\n要求：answers 的键是题号字符串，值是大写字母选项；")
	sb.WriteString("未作答的题目不要出现在 answers 中。\n\n")
	sb.WriteString("答题卡内容：\n")
	sb.WriteString(sheetText)
	sb.WriteString("\n\n请严格按照JSON格式返回，不要包含其他解释文字。\n")
	return sb.String()
}

// AnalyzeStudent asks the model for a per-student ability analysis based
// on the graded result. The marshal error is impossible for these value
// types, so a failure degrades to an empty data section.
func AnalyzeStudent(result model.StudentGradeResult, counts model.ExamCounts) string {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		resultJSON = []byte("{}")
	}

	var sb strings.Builder
	sb.WriteString("请根据以下学生的批改结果，分析该学生的英语学科能力。\n\n")
	sb.WriteString(fmt.Sprintf("试卷构成：语法题 %d 道，阅读题 %d 道，语言运用题 %d 道，共 %d 道。\n\n",
		counts.GrammarCount, counts.ReadingCount, counts.LanguageUseCount, counts.TotalQuestions))
	sb.WriteString("学生批改结果（JSON）：\n")
	sb.Write(resultJSON)
	sb.WriteString("\n\n请按以下JSON格式返回：\n")
	sb.WriteString(`{
    "abilities": {
        "grammar": {"score": 80, "comment": "评语"},
        "reading": {"score": 65, "comment": "评语"},
        "language_use": {"score": 70, "comment": "评语"}
    },
    "suggestions": ["具体的学习建议"]
}`)
	sb.WriteString("\n\n请严格按照JSON格式返回，不要包含其他解释文字。\n")
	return sb.String()
}
