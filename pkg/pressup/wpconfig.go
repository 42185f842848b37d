package pressup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrConfigShape is returned when the database-name declaration matches
// neither the literal nor the derived form: the deployed site could not be
// guaranteed to reach the correct database.
var ErrConfigShape = errors.New("unrecognized database configuration shape")

// envOverridePrefix namespaces the runtime overrides injected into the config
const envOverridePrefix = "PRESSUP_"

const transportFlagDecl = "define('MYSQL_CLIENT_FLAGS', MYSQLI_CLIENT_SSL);"

// RewriteOpts controls the config rewrite
type RewriteOpts struct {
	// EncryptedTransport inserts the client transport flag before the
	// database-name declaration
	EncryptedTransport bool
	// HostRequired makes a missing DB_HOST declaration fatal
	HostRequired bool
}

// literalDefineRe matches define('KEY', '<literal>') with either quote style.
// The second argument must be a quoted literal, so an already-rewritten
// declaration (whose second argument is a getenv() expression) never matches.
func literalDefineRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`define\(\s*['"]` + key + `['"]\s*,\s*('[^']*'|"[^"]*")\s*\)`)
}

// derivedDefineRe matches define('KEY', somecall(...)) where the second
// argument is a single call expression (one nesting level of parentheses).
func derivedDefineRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`define\(\s*['"]` + key + `['"]\s*,\s*([A-Za-z_][A-Za-z0-9_\\]*\((?:[^()]|\([^()]*\))*\))\s*\)`)
}

// overrideExpr keeps the explicit !== false test: an empty environment value
// is a deliberate override, not an absent one, and must not fall through.
func overrideExpr(key string, fallback string) string {
	env := envOverridePrefix + key
	return fmt.Sprintf("define('%s', getenv('%s') !== false ? getenv('%s') : %s)", key, env, env, fallback)
}

func alreadyRewritten(content string, key string) bool {
	return strings.Contains(content, "getenv('"+envOverridePrefix+key+"')")
}

// rewriteDefine replaces the first declaration of key with its
// override/fallback form, preserving the original value as the fallback.
// Returns the (possibly unchanged) content and whether a declaration was
// found; an already-rewritten declaration counts as found.
func rewriteDefine(content string, key string, allowDerived bool) (string, bool) {
	if alreadyRewritten(content, key) {
		return content, true
	}
	if loc := literalDefineRe(key).FindStringSubmatchIndex(content); loc != nil {
		fallback := content[loc[2]:loc[3]]
		return content[:loc[0]] + overrideExpr(key, fallback) + content[loc[1]:], true
	}
	if allowDerived {
		if loc := derivedDefineRe(key).FindStringSubmatchIndex(content); loc != nil {
			fallback := content[loc[2]:loc[3]]
			return content[:loc[0]] + overrideExpr(key, fallback) + content[loc[1]:], true
		}
	}
	return content, false
}

// insertTransportFlag places the encrypted-transport declaration on its own
// line immediately before the database-name declaration. A no-op when the
// flag is already declared or no database-name declaration can be located.
func insertTransportFlag(content string) string {
	if strings.Contains(content, "MYSQL_CLIENT_FLAGS") {
		return content
	}
	loc := regexp.MustCompile(`define\(\s*['"]DB_NAME['"]`).FindStringIndex(content)
	if loc == nil {
		return content
	}
	lineStart := strings.LastIndex(content[:loc[0]], "\n") + 1
	return content[:lineStart] + transportFlagDecl + "\n" + content[lineStart:]
}

// RewriteConfig transforms the CMS database declarations into
// environment-variable-driven equivalents, preserving the original values as
// runtime fallbacks. The rewrite is idempotent: rewritten declarations no
// longer match the anchored original shapes.
func RewriteConfig(content string, opts RewriteOpts) (string, error) {
	if opts.EncryptedTransport {
		content = insertTransportFlag(content)
	}
	out, found := rewriteDefine(content, "DB_NAME", true)
	if !found {
		return content, errors.Wrapf(ErrConfigShape, "no database-name declaration found")
	}
	out, _ = rewriteDefine(out, "DB_USER", false)
	out, _ = rewriteDefine(out, "DB_PASSWORD", false)
	var hostFound bool
	out, hostFound = rewriteDefine(out, "DB_HOST", false)
	if !hostFound && opts.HostRequired {
		return content, errors.Errorf("database host declaration is required but missing")
	}
	return out, nil
}
