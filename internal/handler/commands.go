package handler

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const userHelp = `📋 Commandes disponibles:

⏰ Pointage:
/scan - Enregistrer une arrivée ou un départ (alias /in, /out)
/link [matricule] - Lier ce compte Telegram à votre matricule
    Exemple: /link E042

🛠 Utilitaires:
/start - Démarrer
/help - Afficher ce message

💡 Fonctionnement:
1. Liez votre compte avec /link
2. Scannez à l'arrivée: l'heure de sortie prévue est réservée (arrivée + 1h)
3. Scannez au départ après l'heure prévue
4. Les jours fériés, congés et missions bloquent le pointage`

const adminHelp = `

👑 Administration:
/addemployee matricule;nom;prénom;département[;téléphone]
    Exemple: /addemployee E042;Diop;Awa;Finance;770000000
/employees [département] - Liste du personnel

📊 Rapports (date: AAAA-MM-JJ ou JJ.MM.AAAA):
/today [date] - Pointages du jour
/present - Employés actuellement présents
/absents [date] [département] - Absents du jour
/report [date] [département] - Rapport du jour
/tracking [AAAA-MM] [matricule|département] - Suivi mensuel
/stats [matricule] - Statistiques d'un employé

📅 Calendrier:
/holiday [début] [fin] [description] - Ajouter un jour férié
/holidays [année] - Jours fériés de l'année
/leave [matricule] [début] [fin] - Ajouter un congé
/mission [matricule] [début] [fin] [nom] - Ajouter une mission
/periods [matricule] - Congés et missions d'un employé`

func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	text := "👋 Bienvenue dans le système de pointage.\n\n" + userHelp
	if h.config.IsAdmin(message.Chat.ID) {
		text += adminHelp
	}
	h.reply(message, text)
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	text := userHelp
	if h.config.IsAdmin(message.Chat.ID) {
		text += adminHelp
		text += fmt.Sprintf("\n\n🔧 ID du chat administrateur: %d", h.config.BaseAdminChatID)
	}
	h.reply(message, text)
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.reply(message, "❌ Commande inconnue. Utilisez /help pour la liste des commandes.")
}
