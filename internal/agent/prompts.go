package agent

// System and per-stage prompt contracts. Every stage demands a bare JSON
// object so responses parse without prose stripping; cleanJSON handles the
// models that fence their output anyway.

const systemText = "You are a careful product analyst. Always respond with a single valid JSON object matching the requested schema. Never include prose outside the JSON. Use empty strings or empty arrays for fields you cannot determine."

const identifyImagePrompt = `Identify the product shown in the attached photo.
%s
Return a JSON object:
{"product_name": "<specific product name>", "category": "<product category>", "brand": "<brand if visible or known, else empty>", "confidence": <0.0-1.0>, "visual_clues": ["<observation>", ...]}

Base confidence on how certain the visual match is. If web context is provided and conflicts with what the photo shows, trust the photo but mention the conflict in visual_clues.`

const identifyURLPrompt = `Identify the product described by the following web context. No photo is available.

%s

Return a JSON object:
{"product_name": "<specific product name>", "category": "<product category>", "brand": "<brand if known, else empty>", "confidence": <0.0-1.0>, "visual_clues": ["<signal from the context>", ...]}`

const knowledgePrompt = `Provide factual background knowledge about this product.

Product: %s
Category: %s

Return a JSON object:
{"overview": "<2-3 sentence factual overview>", "key_features": ["<feature>", ...], "common_variants": ["<variant>", ...], "uncertainties": ["<thing you are unsure about>", ...]}`

const useCasesPrompt = `Describe how this product is typically used.

Product: %s

Return a JSON object:
{"intended_users": ["<user group>", ...], "common_use_cases": ["<use case>", ...], "usage_frequency": "<daily|weekly|occasional|rare>", "misuse_warnings": ["<warning>", ...]}`

const impactPrompt = `Assess the health and environmental impact of this product.

Product: %s
Category: %s
Key features: %s

Return a JSON object:
{"health_impact": "<summary>", "environmental_impact": "<summary>", "risk_level": "<low|medium|high>", "impact_score": <0-100, higher is more harmful>, "limitations": ["<limitation of this assessment>", ...]}`

const recommendPrompt = `Give a balanced purchase recommendation for this product.

Product: %s
Impact assessment: %s

Return a JSON object:
{"recommendation_summary": "<balanced 2-3 sentence recommendation>", "alternatives": [{"alternative_type": "<type of alternative product>", "reason": "<why it may be better>"}, ...]}`

const buyGuidancePrompt = `Find trustworthy places to buy this product online. Prefer direct product detail pages on well-known retail platforms over search result pages.

Product: %s
Category: %s
Brand: %s
Recommendation context: %s
Impact context: %s

Return a JSON object:
{"purchase_recommended": <true|false>, "purchase_reason": "<one sentence>", "buy_links": [{"platform": "<retailer name>", "link": "<direct product page URL>", "description": "<what the link points at>"}, ...]}

Only include links you are confident exist. An empty buy_links list is acceptable.`
