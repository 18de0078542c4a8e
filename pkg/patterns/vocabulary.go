package patterns

// =============================================================================
// VOCABULARY DEFINITIONS BY TACTIC FAMILY
// All vocabularies are registered here and compiled once at package init.
// Word lists mirror the labeled corpora the detector was tuned against;
// changing them shifts feature distributions, so retrain after edits.
// =============================================================================

// --- PSYCHOLOGICAL MANIPULATION FAMILIES ---
func (r *Registry) registerManipulationVocabularies() {
	r.register("urgency_terms",
		`(?i)\b(urgent|immediately|asap|quick|fast|now|instant|right away|hurry)\b`,
		CategoryUrgency, 10, "Time-pressure language")

	r.register("authority_terms",
		`(?i)\b(official|government|legal|compliance|required|mandatory|authorized|security|verify)\b`,
		CategoryAuthority, 10, "Authority or institutional framing")

	r.register("scarcity_terms",
		`(?i)\b(limited|only|exclusive|last chance|final|ending soon|never again)\b`,
		CategoryScarcity, 8, "Scarcity and exclusivity framing")

	r.register("social_proof_terms",
		`(?i)\b(everyone|people|others|join|many|most|popular)\b`,
		CategorySocialProof, 5, "Social-proof framing")
}

// --- INFORMATION HARVESTING FAMILIES ---
func (r *Registry) registerHarvestingVocabularies() {
	r.register("personal_info_terms",
		`(?i)\b(phone|number|email|address|bank|account|password|verify|confirm|details)\b`,
		CategoryInfoRequest, 12, "Personal or credential information solicitation")

	r.register("financial_terms",
		`(?i)\b(money|payment|investment|profit|fund|cash|price|fee|cost)\b`,
		CategoryFinancial, 10, "Financial terminology")

	// Off-platform contact channels: moving the conversation away from the
	// monitored surface is a classic precursor to the actual ask.
	r.register("platform_channels",
		`(?i)\b(whatsapp|telegram|signal|wechat|viber|skype)\b`,
		CategoryPlatformMigration, 12, "Off-platform messenger names")
	r.register("contact_solicitation",
		`(?i)\b(email me|call me|text me)\b`,
		CategoryPlatformMigration, 12, "Direct off-platform contact requests")
}

// --- EMOTIONAL TONE FAMILIES ---
func (r *Registry) registerEmotionVocabularies() {
	r.register("positive_emotion_terms",
		`(?i)\b(great|amazing|wonderful|impressive|fantastic|excellent|perfect)\b`,
		CategoryPositiveEmotion, 0, "Flattery and positive-emotion loading")

	r.register("negative_emotion_terms",
		`(?i)\b(urgent|suspended|terminated|legal|consequences|problem|issue)\b`,
		CategoryNegativeEmotion, 0, "Fear and consequence loading")
}

// --- CONVERSATION DYNAMICS (RULE SCORER) ---
func (r *Registry) registerConversationPatterns() {
	cat := CategoryEscalation

	r.register("escalation_immediately", `(?i)immediately`, cat, 15, "Immediate-action pressure")
	r.register("escalation_asap", `(?i)as soon as possible`, cat, 15, "Immediate-action pressure")
	r.register("escalation_urgent", `(?i)urgent`, cat, 15, "Urgency pressure")
	r.register("escalation_right_away", `(?i)right away`, cat, 15, "Immediate-action pressure")
	r.register("escalation_meet", `(?i)let.me.(call|meet).you`, cat, 15, "Push to meet or call")
	r.register("escalation_talk", `(?i)we.need.to.talk`, cat, 15, "Manufactured importance")

	cat = CategoryPrivateInfo

	r.register("private_phone", `(?i)phone.number`, cat, 20, "Phone number solicitation")
	r.register("private_whatsapp", `(?i)whatsapp`, cat, 20, "WhatsApp channel solicitation")
	r.register("private_telegram", `(?i)telegram`, cat, 20, "Telegram channel solicitation")
	r.register("private_email", `(?i)personal.email`, cat, 20, "Personal email solicitation")
	r.register("private_address", `(?i)home.address`, cat, 20, "Home address solicitation")
	r.register("private_send_me", `(?i)send.me.your`, cat, 20, "Direct personal data request")
	r.register("private_give_me", `(?i)give.me.your`, cat, 20, "Direct personal data request")
}

// --- STRUCTURAL PATTERNS ---
func (r *Registry) registerStructuralPatterns() {
	r.register("embedded_link",
		`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`,
		CategoryLink, 0, "Embedded URL")
}
