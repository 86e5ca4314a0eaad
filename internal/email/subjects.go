package email

const subjectQuoteProposalFmt = "Offerte %s: %s"
