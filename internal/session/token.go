package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/mapstreak/geoquiz/internal/engine"
)

// signQuestionToken creates the HMAC token issued with each question.
// The client must echo it on submit, which pins the submission to the
// exact question instance the server generated. With no key configured
// the question id doubles as the token.
func signQuestionToken(key []byte, questionID, answerRef string) string {
	if len(key) == 0 {
		return questionID
	}
	payload := fmt.Sprintf("%s:%s", questionID, answerRef)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyQuestionToken checks a submitted token in constant time.
func verifyQuestionToken(key []byte, questionID, answerRef, token string) bool {
	expected := signQuestionToken(key, questionID, answerRef)
	return hmac.Equal([]byte(expected), []byte(token))
}

// answerRef is the server-side answer component folded into the token.
// Map taps have no option list, so the target code stands in.
func answerRef(q *engine.Question) string {
	if q.AnswerValue != "" {
		return q.AnswerValue
	}
	if q.TargetCode != "" {
		return q.TargetCode
	}
	return string(q.Type)
}
