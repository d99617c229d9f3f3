package catalog

const (
	acl4ssrBase      = "https://raw.githubusercontent.com/ACL4SSR/ACL4SSR/master/Clash/Ruleset/"
	blackmatrix7Base = "https://raw.githubusercontent.com/blackmatrix7/ios_rule_script/master/rule/Clash/"

	// DefaultV2flyBaseURL is the raw data directory of domain-list-community.
	DefaultV2flyBaseURL = "https://raw.githubusercontent.com/v2fly/domain-list-community/master/data/"
)

// Default returns the catalog used when no catalog file is configured.
// Google.list variants are left out; they cover far more than AI services.
func Default() *Catalog {
	return &Catalog{
		Sources: []Source{
			{
				Name:   "ACL4SSR",
				Format: "classical",
				URLs:   []string{acl4ssrBase + "OpenAi.list"},
			},
			{
				Name:   "blackmatrix7",
				Format: "classical",
				URLs: []string{
					blackmatrix7Base + "OpenAI/OpenAI.list",
					blackmatrix7Base + "Copilot/Copilot.list",
					blackmatrix7Base + "Claude/Claude.list",
					blackmatrix7Base + "Gemini/Gemini.list",
				},
			},
			{
				Name:   "Loyalsoldier",
				Format: "classical",
				URLs:   []string{"https://raw.githubusercontent.com/Loyalsoldier/clash-rules/release/proxy.txt"},
			},
		},
		V2fly: V2fly{
			BaseURL: DefaultV2flyBaseURL,
			Services: []string{
				"openai",
				"anthropic",
				"google-deepmind",
				"huggingface",
				"perplexity",
				"xai",
				"groq",
			},
		},
		IgnoredSuffixes: []string{
			"google.com",
			"google.cn",
			"google.com.hk",
			"bing.com",
			"microsoft.com",
			"apple.com",
			"amazon.com",
			"baidu.com",
		},
		Builtin: Builtin{Suffixes: builtinAISuffixes},
	}
}

// builtinAISuffixes are well-known AI service domains emitted even when
// every remote source is unreachable. bing.com stays listed for Copilot and
// is still removed by the ignore-list.
var builtinAISuffixes = []string{
	// chat
	"openai.com",
	"chat.openai.com",
	"platform.openai.com",
	"anthropic.com",
	"claude.ai",
	"gemini.google.com",
	"bard.google.com",
	"poe.com",
	"character.ai",
	"perplexity.ai",
	"you.com",

	// image generation
	"midjourney.com",
	"stability.ai",
	"stablediffusionweb.com",
	"dall-e.com",
	"firefly.adobe.com",
	"leonardo.ai",
	"playground.ai",
	"craiyon.com",

	// model platforms
	"huggingface.co",
	"replicate.com",
	"runpod.io",
	"together.ai",
	"cohere.com",
	"ai21.com",

	// tools
	"jasper.ai",
	"copy.ai",
	"writesonic.com",
	"notion.ai",
	"gamma.app",
	"tome.app",
	"beautiful.ai",
	"canva.com",

	// video and audio
	"runway.ml",
	"synthesia.io",
	"descript.com",
	"elevenlabs.io",
	"murf.ai",

	// research
	"paperswithcode.com",
	"arxiv.org",
	"kaggle.com",
	"civitai.com",

	// search
	"phind.com",
	"bing.com",
}
