package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LanguageContextKey = "lang"
	languageSessionKey = "lang"
)

// Languages the UI ships strings for.
var supportedLanguages = []language.Tag{
	language.English, // en (default)
	language.Hindi,   // hi
	language.Punjabi, // pa
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// LanguageMiddleware resolves the display language: an explicit choice saved
// in the cookie session wins, otherwise Accept-Language is matched against
// the supported set.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		if saved, ok := session.Get(languageSessionKey).(string); ok && saved != "" {
			if tag, err := language.Parse(saved); err == nil {
				c.Set(LanguageContextKey, tag.String())
				c.Next()
				return
			}
		}

		accept := c.GetHeader("Accept-Language")
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err != nil || len(tags) == 0 {
			c.Set(LanguageContextKey, language.English.String())
			c.Next()
			return
		}
		tag, _, _ := languageMatcher.Match(tags...)
		base, _ := tag.Base()
		c.Set(LanguageContextKey, base.String())
		c.Next()
	}
}

// SetLanguageHandler persists an explicit language choice in the cookie
// session. The preference lives client-side only; it is unrelated to the
// account.
func SetLanguageHandler(c *gin.Context) {
	var req struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "language is required"})
		return
	}

	tag, err := language.Parse(req.Language)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		return
	}
	matched, _, _ := languageMatcher.Match(tag)
	base, _ := matched.Base()

	session := sessions.Default(c)
	session.Set(languageSessionKey, base.String())
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save preference"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": base.String()})
}
