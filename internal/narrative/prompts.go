package narrative

const systemPrompt = `You are a management consultant and former manufacturing director. Be professional and concise, and give advice that connects directly to practice.`

// userPrompt arguments: company, overall mean, signal, archetype, two weakest
// categories, all categories.
const userPrompt = `Based on the diagnosis below, write a concrete comment for the company's executives of about 300 characters (260 to 340). Write a single paragraph, no bullet points, no preamble or disclaimers. Close with one sentence that naturally invites them to take the next step in a 90-minute spot diagnosis.

[Company] %s
[Overall mean] %.2f / 5
[Signal] %s
[Type] %s
[Two weakest categories] %s
[Five categories] %s`
