package sentiment

import "strings"

// emotionKeywords is the closed emotion taxonomy with its keyword buckets.
var emotionKeywords = map[string][]string{
	"joy":          {"happy", "joy", "love", "great", "awesome", "excited", "fun", "delighted", "glad", "celebrate", "yay", "wonderful"},
	"sadness":      {"sad", "cry", "crying", "depressed", "miserable", "heartbroken", "disappointed", "grief", "lonely", "sorrow"},
	"anger":        {"angry", "furious", "mad", "rage", "outraged", "hate", "annoyed", "pissed", "disgusted", "livid"},
	"fear":         {"afraid", "scared", "terrified", "worried", "anxious", "panic", "nervous", "dread", "frightened"},
	"surprise":     {"surprised", "shocked", "wow", "unexpected", "unbelievable", "astonished", "stunned", "omg"},
	"disgust":      {"disgusting", "gross", "nasty", "revolting", "vile", "sickening", "repulsive", "ew"},
	"trust":        {"trust", "reliable", "dependable", "honest", "loyal", "safe", "secure", "credible", "proven"},
	"anticipation": {"soon", "waiting", "upcoming", "cant wait", "looking forward", "eager", "anticipate", "countdown", "finally"},
}

// DetectEmotions counts keyword hits per emotion bucket and L1-normalizes the
// counts to sum to 1. All buckets are present in the result; if no keyword
// hits, every value is zero.
func DetectEmotions(text string) map[string]float64 {
	tokens := Tokenize(text)
	tokenCount := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tokenCount[t]++
	}
	// Multi-word keywords match against the normalized token stream.
	joined := " " + strings.Join(tokens, " ") + " "

	counts := make(map[string]float64, len(emotionKeywords))
	total := 0.0
	for emotion, keywords := range emotionKeywords {
		var n float64
		for _, kw := range keywords {
			if strings.Contains(kw, " ") {
				n += float64(strings.Count(joined, " "+kw+" "))
			} else {
				n += float64(tokenCount[kw])
			}
		}
		counts[emotion] = n
		total += n
	}

	if total > 0 {
		for emotion := range counts {
			counts[emotion] /= total
		}
	}
	return counts
}
