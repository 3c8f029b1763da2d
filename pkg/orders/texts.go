package orders

// User-facing copy. Kept in one place so operators can review the exact
// wording the bot sends.
const (
	welcomeText = "Hola, soy Chavito 👋\nTe doy una mano con las encomiendas a los penales.\n\nPodés decirme directamente lo que necesitás.\nEjemplo:\n- \"Quiero mandar una caja a la unidad 28 con yerba y jabón\"\n- \"Quiero saber el estado de mi pedido\""

	confirmationWithPaymentText = "Perfecto 🙌\nTe armé el pedido N° %s.\nAcá tenés el enlace para pagar por Mercado Pago:\n%s\n\nApenas se acredita el pago, ponemos el pedido en PREPARANDO y te avisamos."

	confirmationText = "Perfecto 🙌\nTe armé el pedido N° %s.\nCuando esté listo el pago, te avisamos por acá."

	createFailedText = "Voy a tener que cargarlo a mano, tuve un problema técnico. Pero quedate tranqui, repetime por favor el mensaje con penal, interno y productos."

	noRecentOrdersText = "Por ahora no encuentro pedidos recientes a tu nombre. Si ya hiciste uno, mandame el número de pedido o el comprobante y te ayudo."

	noRecentOrdersShortText = "Por ahora no tengo pedidos recientes con tu número. Si ya hiciste uno, mandame el número de pedido o el comprobante."

	latestOrderText = "Te cuento el último pedido que tengo:\n\n🧾 Pedido N° %s\n📍 Penal: %s\n👤 Interno: %s\n📦 Estado actual: %s\n\nSi querés más info, te puedo pasar el detalle."

	escalationIntroText = "Te derivo con un asesor de Chavito para que te dé una mano directamente 🙌\nAguantame un momento, por favor."

	escalationAckText = "Listo, dejé avisado. Apenas un asesor esté libre te escribe por acá."
)
