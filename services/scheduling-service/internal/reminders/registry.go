package reminders

import "github.com/fachline/backend/services/scheduling-service/internal/model"

// Template is a user-authored reminder message for one channel.
type Template struct {
	ID       string
	Channel  model.Channel
	Name     string
	Body     string
	IsActive bool
}

// Registry resolves the template for a channel: the first active template
// authored for that channel, otherwise the channel's built-in default. Every
// channel has its own default, so an SMS never falls back to an email body.
type Registry struct {
	templates []Template
	defaults  map[model.Channel]Template
}

var builtinDefaults = map[model.Channel]Template{
	model.ChannelSMS: {
		ID: "default-sms", Channel: model.ChannelSMS, Name: "Domyślny SMS",
		Body:     "Przypomnienie: {serviceType} {date} o godz. {time}.",
		IsActive: true,
	},
	model.ChannelEmail: {
		ID: "default-email", Channel: model.ChannelEmail, Name: "Domyślny e-mail",
		Body:     "Dzień dobry {clientName}, przypominamy o wizycie {serviceType} w dniu {date} o godz. {time} ({location}). Wiadomość wysłana {reminderHours}h przed terminem.",
		IsActive: true,
	},
	model.ChannelPush: {
		ID: "default-push", Channel: model.ChannelPush, Name: "Domyślny push",
		Body:     "{serviceType}: {date} {time}",
		IsActive: true,
	},
	model.ChannelCall: {
		ID: "default-call", Channel: model.ChannelCall, Name: "Domyślne połączenie",
		Body:     "Przypomnienie o wizycie {date} o godz. {time}.",
		IsActive: true,
	},
}

func NewRegistry(templates []Template) *Registry {
	return &Registry{templates: templates, defaults: builtinDefaults}
}

func (r *Registry) ForChannel(ch model.Channel) Template {
	for _, t := range r.templates {
		if t.Channel == ch && t.IsActive {
			return t
		}
	}
	return r.defaults[ch]
}
